// Package main implements the cartflow-load binary.
// It drains a directory of batch files into the staging store, isolating
// failures per record and per file.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cartflow/cartflow/internal/loader"
	"github.com/cartflow/cartflow/internal/staging"
	"github.com/cartflow/cartflow/internal/storage"
)

const restoreConcurrency = 4

// Config holds the loader configuration.
type Config struct {
	EventsDir     string
	StorePath     string
	BusyTimeout   time.Duration
	ProgressEvery int
	ArchiveDir    string
	ArchivePrefix string
	Restore       bool
}

func main() {
	cfg := parseFlags()

	log.Printf("Starting cartflow-load...")
	log.Printf("Events directory: %s", cfg.EventsDir)
	log.Printf("Staging store: %s", cfg.StorePath)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Initialize the archive when one is configured
	var archive storage.ObjectStorage
	if cfg.ArchiveDir != "" {
		local, err := storage.NewLocalStorage(cfg.ArchiveDir)
		if err != nil {
			log.Fatalf("Failed to initialize archive: %v", err)
		}
		archive = local
		log.Printf("Archive initialized at: %s", cfg.ArchiveDir)
	}

	if cfg.Restore {
		if archive == nil {
			log.Fatalf("-restore requires -archive")
		}
		restoreBatches(ctx, archive, cfg)
	}

	opts := []loader.Option{loader.WithProgressEvery(cfg.ProgressEvery)}
	if archive != nil {
		opts = append(opts, loader.WithArchive(archive, cfg.ArchivePrefix))
	}

	opener := staging.Config{
		Driver:      "sqlite3",
		Path:        cfg.StorePath,
		BusyTimeout: cfg.BusyTimeout,
	}

	summary, err := loader.New(opts...).LoadAll(ctx, cfg.EventsDir, opener)
	if summary != nil {
		summary.Log()
	}
	if err != nil {
		log.Fatalf("Load failed: %v", err)
	}
}

// restoreBatches pulls archived batch files back into the events directory
// so a previous run's events can be loaded again.
func restoreBatches(ctx context.Context, archive storage.ObjectStorage, cfg Config) {
	restorer := storage.NewRestorer(archive, restoreConcurrency, cfg.EventsDir)
	result, err := restorer.Restore(ctx, cfg.ArchivePrefix)
	if err != nil {
		log.Fatalf("Restore failed: %v", err)
	}

	log.Printf("Restored %d batch file(s), %d already present, %d failed",
		result.Downloads, result.Skipped, len(result.Errors))
	for objectPath, restoreErr := range result.Errors {
		log.Printf("[WARN] restore: %s: %v", objectPath, restoreErr)
	}
}

func parseFlags() Config {
	// A local .env file supplies defaults before flags are read
	_ = godotenv.Load()

	cfg := Config{}

	flag.StringVar(&cfg.EventsDir, "events", envOr("CARTFLOW_EVENTS_DIR", "./data/cartflow/events"), "Directory scanned for batch files")
	flag.StringVar(&cfg.StorePath, "db", envOr("CARTFLOW_STORE_PATH", "./data/cartflow/staging.db"), "Path to the staging database file")
	flag.DurationVar(&cfg.BusyTimeout, "busy-timeout", 5*time.Second, "How long writes wait on a locked database")
	flag.IntVar(&cfg.ProgressEvery, "progress", 50, "Records between progress log lines")
	flag.StringVar(&cfg.ArchiveDir, "archive", envOr("CARTFLOW_ARCHIVE_PATH", ""), "Local archive directory (empty disables archiving)")
	flag.StringVar(&cfg.ArchivePrefix, "archive-prefix", "events", "Prefix for archived object names")
	flag.BoolVar(&cfg.Restore, "restore", false, "Pull archived batch files into the events directory before loading")

	flag.Parse()

	if cfg.ProgressEvery < 1 {
		log.Fatalf("-progress must be at least 1, got %d", cfg.ProgressEvery)
	}

	return cfg
}

// envOr returns the environment value for key, or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
