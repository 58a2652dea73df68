// Package fetch materializes catalog resources as local files.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/boreal-data/seaoflow/internal/model"
)

// Size tolerance for treating an existing artifact as already downloaded.
const sizeTolerance = 0.1

// Params restricts and modifies a Materialize run.
type Params struct {
	Years []int // keep only resources with these inferred years; empty = all
	Force bool  // re-download even when a valid local artifact exists
}

// Failure records one resource that exhausted its download attempts.
type Failure struct {
	Name    string
	Message string
}

// Result aggregates the outcome of one Materialize run. A partial batch
// (Failed > 0) is a valid outcome.
type Result struct {
	OK       int
	Skipped  int
	Failed   int
	Failures []Failure
}

// Orchestrator downloads catalog resources one at a time, in catalog order.
// Sequential on purpose: the publisher is a shared government server and
// ordering plus pacing guarantees depend on strict sequencing.
type Orchestrator struct {
	client      *Client
	dir         string
	maxAttempts int
	baseDelay   time.Duration
	pacing      time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithMaxAttempts sets the per-resource attempt ceiling.
func WithMaxAttempts(n int) OrchestratorOption {
	return func(o *Orchestrator) { o.maxAttempts = n }
}

// WithBaseDelay sets the backoff unit; attempt n waits n × base.
func WithBaseDelay(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.baseDelay = d }
}

// WithPacing sets the politeness pause inserted after each successful
// transfer.
func WithPacing(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.pacing = d }
}

// WithSleep replaces the wait function. Tests use this to run instantly.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) OrchestratorOption {
	return func(o *Orchestrator) { o.sleep = fn }
}

// NewOrchestrator creates an Orchestrator writing into dir.
func NewOrchestrator(client *Client, dir string, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		client:      client,
		dir:         dir,
		maxAttempts: 3,
		baseDelay:   5 * time.Second,
		pacing:      time.Second,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Materialize ensures every selected catalog resource exists locally,
// downloading what is missing or stale. Individual failures are recorded,
// not fatal; the returned error covers only setup problems.
func (o *Orchestrator) Materialize(ctx context.Context, cat *model.Catalog, p Params) (Result, error) {
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("fetch: create %s: %w", o.dir, err)
	}

	resources := selectYears(cat.Resources, p.Years)
	var res Result

	for i, r := range resources {
		dest := filepath.Join(o.dir, r.Name)

		if !p.Force && artifactValid(dest, r.Size) {
			slog.Debug("already present", "resource", r.Name)
			res.Skipped++
			continue
		}

		slog.Info("downloading", "resource", r.Name, "progress", fmt.Sprintf("%d/%d", i+1, len(resources)))
		size, err := o.download(ctx, r.URL, dest)
		if err != nil {
			slog.Warn("download failed", "resource", r.Name, "error", err)
			res.Failed++
			res.Failures = append(res.Failures, Failure{Name: r.Name, Message: err.Error()})
			continue
		}

		slog.Info("downloaded", "resource", r.Name, "bytes", size)
		res.OK++
		if err := o.sleep(ctx, o.pacing); err != nil {
			return res, err
		}
	}
	return res, nil
}

// download attempts one resource up to maxAttempts times with a linear
// backoff between attempts.
func (o *Orchestrator) download(ctx context.Context, url, dest string) (int64, error) {
	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		size, err := o.client.Download(ctx, url, dest)
		if err == nil {
			return size, nil
		}
		lastErr = err
		if attempt < o.maxAttempts {
			if serr := o.sleep(ctx, time.Duration(attempt)*o.baseDelay); serr != nil {
				return 0, serr
			}
		}
	}
	return 0, lastErr
}

// artifactValid reports whether a local file at dest can stand in for a
// resource of the declared size: present, and within 10% of the declared
// byte count. A declared size of 0 means any present file is valid.
func artifactValid(dest string, declared int64) bool {
	info, err := os.Stat(dest)
	if err != nil {
		return false
	}
	if declared == 0 {
		return true
	}
	diff := info.Size() - declared
	if diff < 0 {
		diff = -diff
	}
	return float64(diff)/float64(declared) < sizeTolerance
}

func selectYears(resources []model.SourceResource, years []int) []model.SourceResource {
	if len(years) == 0 {
		return resources
	}
	want := make(map[int]bool, len(years))
	for _, y := range years {
		want[y] = true
	}
	var out []model.SourceResource
	for _, r := range resources {
		if want[r.Year] {
			out = append(out, r)
		}
	}
	return out
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
