// Package config loads seaoflow settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// IndexFileName is the catalog cache file kept inside the source directory.
// The extraction stage must never treat it as a data file.
const IndexFileName = "index.json"

// Config holds all seaoflow configuration.
type Config struct {
	SourceDir string // downloaded JSON batches + the index cache
	DataDir   string // CSV output directory
	IndexURL  string // catalog API; empty selects the built-in default

	IndexTimeout    time.Duration // ceiling for the catalog API call
	DownloadTimeout time.Duration // ceiling for one file transfer
	MaxAttempts     int           // download attempts per resource
	RetryDelay      time.Duration // backoff unit between attempts
	RequestDelay    time.Duration // politeness pause after each download

	// Workers is reserved. Downloads run strictly sequentially today;
	// do not wire this into the orchestrator without revisiting the
	// server-politeness guarantees.
	Workers int

	LogLevel string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		SourceDir:       getenv("SEAOFLOW_SOURCE_DIR", "json_files"),
		DataDir:         getenv("SEAOFLOW_DATA_DIR", "data"),
		IndexURL:        os.Getenv("SEAOFLOW_INDEX_URL"),
		IndexTimeout:    getenvDuration("SEAOFLOW_INDEX_TIMEOUT", 30*time.Second),
		DownloadTimeout: getenvDuration("SEAOFLOW_DOWNLOAD_TIMEOUT", 5*time.Minute),
		MaxAttempts:     getenvInt("SEAOFLOW_MAX_ATTEMPTS", 3),
		RetryDelay:      getenvDuration("SEAOFLOW_RETRY_DELAY", 5*time.Second),
		RequestDelay:    getenvDuration("SEAOFLOW_REQUEST_DELAY", time.Second),
		Workers:         getenvInt("SEAOFLOW_WORKERS", 3),
		LogLevel:        getenv("SEAOFLOW_LOG_LEVEL", "info"),
	}
}

// IndexPath returns the location of the catalog cache file.
func (c Config) IndexPath() string {
	return filepath.Join(c.SourceDir, IndexFileName)
}

// Validate checks the configuration, reporting every problem at once.
func (c Config) Validate() error {
	var errs []string

	if c.SourceDir == "" {
		errs = append(errs, "source dir must not be empty")
	}
	if c.DataDir == "" {
		errs = append(errs, "data dir must not be empty")
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Sprintf("max attempts must be >= 1, got %d", c.MaxAttempts))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, fmt.Sprintf("retry delay must not be negative, got %v", c.RetryDelay))
	}
	if c.RequestDelay < 0 {
		errs = append(errs, fmt.Sprintf("request delay must not be negative, got %v", c.RequestDelay))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Sprintf("workers must be >= 1, got %d", c.Workers))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log level %q", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
