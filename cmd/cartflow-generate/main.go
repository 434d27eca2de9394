// Package main implements the cartflow-generate binary.
// It writes batches of synthetic e-commerce events as timestamp-named
// JSON files ready for the loader.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cartflow/cartflow/internal/batch"
	"github.com/cartflow/cartflow/internal/generate"
)

// Config holds the generator configuration.
type Config struct {
	OutputDir  string
	PageViews  int
	AddToCarts int
	Purchases  int
	Reviews    int
	Batches    int
	Seed       int64
	Shuffle    bool
	Compress   bool
}

func main() {
	cfg := parseFlags()

	log.Printf("Starting cartflow-generate...")
	log.Printf("Output directory: %s", cfg.OutputDir)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	var genOpts []generate.Option
	if cfg.Seed != 0 {
		genOpts = append(genOpts, generate.WithSeed(cfg.Seed))
	}
	gen := generate.New(genOpts...)

	var writerOpts []batch.WriterOption
	if cfg.Compress {
		writerOpts = append(writerOpts, batch.WithCompression())
	}
	writer := batch.NewWriter(cfg.OutputDir, writerOpts...)

	counts := generate.Counts{
		PageViews:  cfg.PageViews,
		AddToCarts: cfg.AddToCarts,
		Purchases:  cfg.Purchases,
		Reviews:    cfg.Reviews,
	}

	total := 0
	written := 0
	for i := 0; i < cfg.Batches; i++ {
		if ctx.Err() != nil {
			log.Printf("Signal received, stopping after %d batch file(s)", written)
			break
		}

		events, err := gen.GenerateBatch(counts, cfg.Shuffle)
		if err != nil {
			log.Fatalf("Failed to generate batch: %v", err)
		}

		path, err := writer.Write(events)
		if err != nil {
			log.Fatalf("Failed to write batch file: %v", err)
		}

		log.Printf("Wrote %d events to %s", len(events), path)
		total += len(events)
		written++
	}

	log.Printf("cartflow-generate finished: %d events in %d batch file(s)", total, written)
	log.Printf("  page_view=%d add_to_cart=%d purchase=%d product_review=%d per batch",
		counts.PageViews, counts.AddToCarts, counts.Purchases, counts.Reviews)
}

func parseFlags() Config {
	// A local .env file supplies defaults before flags are read
	_ = godotenv.Load()

	cfg := Config{}

	flag.StringVar(&cfg.OutputDir, "out", envOr("CARTFLOW_EVENTS_DIR", "./data/cartflow/events"), "Directory batch files are written to")
	flag.IntVar(&cfg.PageViews, "page-views", 100, "Number of page_view events per batch")
	flag.IntVar(&cfg.AddToCarts, "add-to-carts", 30, "Number of add_to_cart events per batch")
	flag.IntVar(&cfg.Purchases, "purchases", 20, "Number of purchase events per batch")
	flag.IntVar(&cfg.Reviews, "reviews", 15, "Number of product_review events per batch")
	flag.IntVar(&cfg.Batches, "batches", 1, "Number of batch files to write")
	flag.Int64Var(&cfg.Seed, "seed", 0, "Random seed for reproducible batches (0 = time-based)")
	flag.BoolVar(&cfg.Shuffle, "shuffle", true, "Interleave event variants instead of writing them in blocks")
	flag.BoolVar(&cfg.Compress, "compress", false, "Write snappy-compressed batch files (.json.sz)")

	flag.Parse()

	if cfg.Batches < 1 {
		log.Fatalf("-batches must be at least 1, got %d", cfg.Batches)
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
