// Package pipeline sequences the index, download and extraction stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/boreal-data/seaoflow/internal/catalog"
	"github.com/boreal-data/seaoflow/internal/config"
	"github.com/boreal-data/seaoflow/internal/dedup"
	"github.com/boreal-data/seaoflow/internal/extract"
	"github.com/boreal-data/seaoflow/internal/fetch"
	"github.com/boreal-data/seaoflow/internal/model"
	"github.com/boreal-data/seaoflow/internal/output"
)

// ErrNoSourceFiles means the extraction stage found nothing to process.
var ErrNoSourceFiles = errors.New("no source files found")

// Options select which stages run and how.
type Options struct {
	DownloadOnly bool
	ExtractOnly  bool
	Years        []int // restrict downloads to these inferred years
	Force        bool  // re-download ignoring cached size checks
	ByYear       bool  // partition output per year instead of one file
}

// Pipeline connects the catalog manager, download orchestrator and
// extractor into the full batch run.
type Pipeline struct {
	catalog   *catalog.Manager
	fetcher   *fetch.Orchestrator
	extractor *extract.Extractor
	cfg       config.Config
}

// New creates a Pipeline from the given components.
func New(cat *catalog.Manager, fetcher *fetch.Orchestrator, ext *extract.Extractor, cfg config.Config) *Pipeline {
	return &Pipeline{catalog: cat, fetcher: fetcher, extractor: ext, cfg: cfg}
}

// Run obtains the index, then runs the download and extraction stages
// unless skipped. Both stages run by default.
func (p *Pipeline) Run(ctx context.Context, opts Options) error {
	log := slog.With("run", uuid.NewString())

	cat, err := p.catalog.Get(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	if !opts.ExtractOnly {
		if err := p.downloadStage(ctx, log, cat, opts); err != nil {
			return err
		}
	}
	if !opts.DownloadOnly {
		if err := p.extractStage(log, opts); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) downloadStage(ctx context.Context, log *slog.Logger, cat *model.Catalog, opts Options) error {
	log.Info("download stage", "resources", cat.ResourceCount, "years", opts.Years, "force", opts.Force)

	res, err := p.fetcher.Materialize(ctx, cat, fetch.Params{Years: opts.Years, Force: opts.Force})
	if err != nil {
		return fmt.Errorf("pipeline: download: %w", err)
	}

	log.Info("download summary", "ok", res.OK, "skipped", res.Skipped, "failed", res.Failed)
	for _, f := range res.Failures {
		log.Warn("download failure", "resource", f.Name, "error", f.Message)
	}
	return nil
}

// extractStage flattens every local source file, deduplicates and writes
// the dataset. Per-file parse failures are logged and skipped; having no
// files at all is fatal.
func (p *Pipeline) extractStage(log *slog.Logger, opts Options) error {
	files, err := p.sourceFiles()
	if err != nil {
		return err
	}
	log.Info("extraction stage", "files", len(files))

	d := dedup.New()
	total := 0
	for _, f := range files {
		recs, skipped, err := p.extractor.ExtractFile(f)
		if err != nil {
			log.Warn("skipping unreadable file", "file", filepath.Base(f), "error", err)
			continue
		}
		total += len(recs)
		d.AddAll(recs)
		log.Info("extracted", "file", filepath.Base(f), "contracts", len(recs), "skipped", skipped)
	}

	records := d.Records()
	log.Info("deduplicated", "total", total, "unique", len(records))
	Collect(records).Log(log)

	if opts.ByYear {
		if err := output.WriteByYear(records, p.cfg.DataDir); err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
		return nil
	}
	if err := output.WriteSingle(records, filepath.Join(p.cfg.DataDir, output.SingleFileName)); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	return nil
}

// sourceFiles lists the JSON batches under the source dir, excluding the
// index cache file that lives alongside them.
func (p *Pipeline) sourceFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(p.cfg.SourceDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("pipeline: scan %s: %w", p.cfg.SourceDir, err)
	}
	files := matches[:0]
	for _, m := range matches {
		if filepath.Base(m) == config.IndexFileName {
			continue
		}
		files = append(files, m)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("pipeline: %w in %s", ErrNoSourceFiles, p.cfg.SourceDir)
	}
	return files, nil
}
