// Package app wires configuration into the generate and load pipeline stages.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/cartflow/cartflow/internal/batch"
	"github.com/cartflow/cartflow/internal/config"
	"github.com/cartflow/cartflow/internal/generate"
	"github.com/cartflow/cartflow/internal/loader"
	"github.com/cartflow/cartflow/internal/staging"
	"github.com/cartflow/cartflow/internal/storage"
)

// restoreConcurrency bounds parallel downloads when pulling archived
// batch files back into the spool.
const restoreConcurrency = 4

// App runs the pipeline stages selected by the configured mode.
type App struct {
	cfg     *config.Config
	archive storage.ObjectStorage
}

// New creates a new App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	// Resolve paths and validate
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Ensure directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return &App{
		cfg: cfg,
	}, nil
}

// Run executes the configured stages and returns when they finish. There
// is nothing to keep alive afterwards: generate writes a batch file, load
// drains the spool, and both log what they did.
func (a *App) Run(ctx context.Context) error {
	if err := a.initArchive(ctx); err != nil {
		return err
	}

	if a.cfg.ShouldGenerate() {
		if err := a.runGenerate(ctx); err != nil {
			return fmt.Errorf("generate stage failed: %w", err)
		}
	}

	if a.cfg.ShouldLoad() {
		if err := a.runLoad(ctx); err != nil {
			return fmt.Errorf("load stage failed: %w", err)
		}
	}

	log.Printf("cartflow finished in %s mode", a.cfg.Mode)
	return nil
}

// initArchive initializes the archive backend when archiving is enabled.
func (a *App) initArchive(ctx context.Context) error {
	if !a.cfg.Archive.Enabled || a.archive != nil {
		return nil
	}

	var err error
	switch a.cfg.Archive.Type {
	case "local":
		a.archive, err = storage.NewLocalStorage(a.cfg.Archive.Path)
	case "s3":
		s3Cfg := storage.DefaultS3Config()
		if a.cfg.Archive.S3.Region != "" {
			s3Cfg.Region = a.cfg.Archive.S3.Region
		}
		if a.cfg.Archive.S3.Endpoint != "" {
			s3Cfg.Endpoint = a.cfg.Archive.S3.Endpoint
		}
		a.archive, err = storage.NewS3Storage(ctx, a.cfg.Archive.S3.Bucket, s3Cfg)
	default:
		return fmt.Errorf("unsupported archive type: %s", a.cfg.Archive.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize archive: %w", err)
	}

	log.Printf("Archive initialized: type=%s", a.cfg.Archive.Type)
	if a.cfg.Archive.Type == "s3" {
		log.Printf("S3 config: bucket=%s, region=%s, endpoint=%s",
			a.cfg.Archive.S3.Bucket, a.cfg.Archive.S3.Region, a.cfg.Archive.S3.Endpoint)
	}
	return nil
}

// runGenerate produces one batch file of synthetic events.
func (a *App) runGenerate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gen := generate.New(generate.WithSeed(a.cfg.Generate.Seed))
	counts := generate.Counts{
		PageViews:  a.cfg.Generate.PageViews,
		AddToCarts: a.cfg.Generate.AddToCarts,
		Purchases:  a.cfg.Generate.Purchases,
		Reviews:    a.cfg.Generate.Reviews,
	}

	events, err := gen.GenerateBatch(counts, a.cfg.Generate.Shuffle)
	if err != nil {
		return err
	}

	var opts []batch.WriterOption
	if a.cfg.Generate.Compress {
		opts = append(opts, batch.WithCompression())
	}
	path, err := batch.NewWriter(a.cfg.Generate.OutputDir, opts...).Write(events)
	if err != nil {
		return err
	}

	log.Printf("generate: wrote %d events to %s", len(events), path)
	log.Printf("generate:   page_view=%d add_to_cart=%d purchase=%d product_review=%d",
		counts.PageViews, counts.AddToCarts, counts.Purchases, counts.Reviews)
	return nil
}

// runLoad drains the spool directory into the staging store.
func (a *App) runLoad(ctx context.Context) error {
	opener := staging.Config{
		Driver:      a.cfg.Store.Driver,
		Path:        a.cfg.Store.Path,
		BusyTimeout: a.cfg.Store.BusyTimeout,
	}

	opts := []loader.Option{loader.WithProgressEvery(a.cfg.Load.ProgressEvery)}
	if a.archive != nil {
		opts = append(opts, loader.WithArchive(a.archive, a.cfg.Archive.Prefix))
	}

	summary, err := loader.New(opts...).LoadAll(ctx, a.cfg.Load.EventsDir, opener)
	if err != nil {
		return err
	}

	summary.Log()
	return nil
}

// Restore pulls archived batch files back into the spool directory so a
// previous run's events can be loaded again.
func (a *App) Restore(ctx context.Context) error {
	if err := a.initArchive(ctx); err != nil {
		return err
	}
	if a.archive == nil {
		return fmt.Errorf("archive is not enabled")
	}

	restorer := storage.NewRestorer(a.archive, restoreConcurrency, a.cfg.Load.EventsDir)
	result, err := restorer.Restore(ctx, a.cfg.Archive.Prefix)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	log.Printf("restore: %d downloaded, %d already present, %d failed",
		result.Downloads, result.Skipped, len(result.Errors))
	for objectPath, restoreErr := range result.Errors {
		log.Printf("[WARN] restore: %s: %v", objectPath, restoreErr)
	}
	if len(result.Errors) > 0 {
		return fmt.Errorf("restore finished with %d failed object(s)", len(result.Errors))
	}
	return nil
}
