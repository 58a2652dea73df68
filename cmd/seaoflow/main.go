// Package main provides the seaoflow binary entry point.
// Seaoflow turns the weekly SEAO open-contracting disclosures published on
// Données Québec into one deduplicated, enriched CSV dataset.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/boreal-data/seaoflow/internal/catalog"
	"github.com/boreal-data/seaoflow/internal/config"
	"github.com/boreal-data/seaoflow/internal/extract"
	"github.com/boreal-data/seaoflow/internal/fetch"
	"github.com/boreal-data/seaoflow/internal/logging"
	"github.com/boreal-data/seaoflow/internal/pipeline"
	"github.com/boreal-data/seaoflow/internal/region"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cfg := config.Load()
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "seaoflow",
		Short: "SEAO procurement data pipeline",
		Long: `Seaoflow downloads the weekly SEAO JSON disclosures from Données
Québec and flattens them into one deduplicated, enriched CSV dataset
(administrative region, locality flag, cost-overrun metrics, sector codes).

Both stages run by default; --download-only and --extract-only select one.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&cfg.SourceDir, "source-dir", "i", cfg.SourceDir, "directory holding the downloaded JSON batches")
	cmd.Flags().StringVarP(&cfg.DataDir, "output-dir", "o", cfg.DataDir, "directory for the CSV output")
	cmd.Flags().BoolVar(&opts.DownloadOnly, "download-only", false, "download the JSON batches and stop")
	cmd.Flags().BoolVar(&opts.ExtractOnly, "extract-only", false, "extract from already-downloaded batches")
	cmd.Flags().IntSliceVar(&opts.Years, "years", nil, "restrict downloads to these years (e.g. 2024,2025)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "re-download even when a valid local copy exists")
	cmd.Flags().BoolVar(&opts.ByYear, "by-year", false, "write one CSV per year instead of a single file")
	cmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("seaoflow version %s\n", version)
		},
	})

	return cmd
}

func run(cfg config.Config, opts pipeline.Options) error {
	logging.Init(logging.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return err
	}
	if opts.DownloadOnly && opts.ExtractOnly {
		return fmt.Errorf("--download-only and --extract-only are mutually exclusive")
	}

	table, err := region.DefaultTable()
	if err != nil {
		return err
	}

	cat := catalog.NewManager(
		fetch.NewClient(fetch.WithTimeout(cfg.IndexTimeout)),
		cfg.IndexPath(), cfg.IndexURL)
	fetcher := fetch.NewOrchestrator(
		fetch.NewClient(fetch.WithTimeout(cfg.DownloadTimeout)),
		cfg.SourceDir,
		fetch.WithMaxAttempts(cfg.MaxAttempts),
		fetch.WithBaseDelay(cfg.RetryDelay),
		fetch.WithPacing(cfg.RequestDelay),
	)
	extractor := extract.New(region.NewLocator(table))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return pipeline.New(cat, fetcher, extractor, cfg).Run(ctx, opts)
}
