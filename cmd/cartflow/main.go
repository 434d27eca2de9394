// Package main implements the unified cartflow binary.
// This binary can run both pipeline stages (generate, load) in sequence
// or individual stages based on the --mode flag.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/cartflow/cartflow/internal/app"
	"github.com/cartflow/cartflow/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Parse command line flags
	var (
		configFile  string
		dataDir     string
		mode        string
		eventsDir   string
		storePath   string
		seed        int64
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for all data files")
	flag.StringVar(&mode, "mode", "", "Pipeline mode: all, generate, load")
	flag.StringVar(&eventsDir, "events-dir", "", "Directory batch files are written to and loaded from")
	flag.StringVar(&storePath, "store", "", "Path to the staging database file")
	flag.Int64Var(&seed, "seed", 0, "Random seed for event generation (0 = time-based)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "CartFlow - E-Commerce Event Batch Pipeline\n\n")
		fmt.Fprintf(os.Stderr, "Usage: cartflow [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  cartflow --data-dir /data/cartflow\n")
		fmt.Fprintf(os.Stderr, "  cartflow --mode generate --seed 42\n")
		fmt.Fprintf(os.Stderr, "  cartflow --config /etc/cartflow/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  CARTFLOW_MODE           Pipeline mode (all, generate, load)\n")
		fmt.Fprintf(os.Stderr, "  CARTFLOW_DATA_DIR       Base directory for data files\n")
		fmt.Fprintf(os.Stderr, "  CARTFLOW_EVENTS_DIR     Directory for batch files\n")
		fmt.Fprintf(os.Stderr, "  CARTFLOW_STORE_PATH     Path to the staging database\n")
		fmt.Fprintf(os.Stderr, "  CARTFLOW_ARCHIVE_TYPE   Archive type (local, s3)\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("cartflow version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := loadConfig(configFile, dataDir, mode, eventsDir, storePath, seed)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Print startup banner
	printBanner(cfg)

	// Create the application
	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// A signal cancels the context; the run stops at the next record or
	// file boundary instead of mid-commit.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(configFile, dataDir, mode, eventsDir, storePath string, seed int64) (*config.Config, error) {
	var cfg *config.Config
	var err error

	// Start with defaults or load from file
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// Apply environment variables; a local .env file is picked up first
	_ = godotenv.Load()
	config.LoadFromEnv(cfg)

	// Apply command line flags (highest priority)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if mode != "" {
		cfg.Mode = config.Mode(mode)
	}
	if eventsDir != "" {
		cfg.Generate.OutputDir = eventsDir
		cfg.Load.EventsDir = eventsDir
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}
	if seed != 0 {
		cfg.Generate.Seed = seed
	}

	// Resolve paths so the banner shows what will actually be used
	cfg.Resolve()

	return cfg, nil
}

// printBanner prints the startup banner with configuration summary.
func printBanner(cfg *config.Config) {
	log.Printf("╔═══════════════════════════════════════════════════════════╗")
	log.Printf("║                       CARTFLOW                            ║")
	log.Printf("║          E-Commerce Event Batch Pipeline                  ║")
	log.Printf("╚═══════════════════════════════════════════════════════════╝")
	log.Printf("")
	log.Printf("Configuration:")
	log.Printf("  Mode:     %s", cfg.Mode)
	log.Printf("  Data Dir: %s", cfg.DataDir)
	log.Printf("")

	if cfg.ShouldGenerate() {
		log.Printf("Generate Stage:")
		log.Printf("  Output Dir: %s", cfg.Generate.OutputDir)
		log.Printf("  Events: %d page_view, %d add_to_cart, %d purchase, %d product_review",
			cfg.Generate.PageViews, cfg.Generate.AddToCarts, cfg.Generate.Purchases, cfg.Generate.Reviews)
		if cfg.Generate.Seed != 0 {
			log.Printf("  Seed: %d", cfg.Generate.Seed)
		}
	}

	if cfg.ShouldLoad() {
		log.Printf("Load Stage:")
		log.Printf("  Events Dir: %s", cfg.Load.EventsDir)
		log.Printf("  Store:      %s", cfg.Store.Path)
		if cfg.Archive.Enabled {
			log.Printf("  Archive:    %s", cfg.Archive.Type)
		}
	}

	log.Printf("")
}
