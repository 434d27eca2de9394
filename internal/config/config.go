// Package config provides unified configuration for the CartFlow pipeline.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode represents the pipeline stage to run.
type Mode string

const (
	ModeAll      Mode = "all"
	ModeGenerate Mode = "generate"
	ModeLoad     Mode = "load"
)

// Config holds the unified configuration for the CartFlow pipeline.
type Config struct {
	// Mode specifies which stages to run: all, generate, load
	Mode Mode `json:"mode" yaml:"mode"`

	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Generate stage configuration
	Generate GenerateConfig `json:"generate" yaml:"generate"`

	// Load stage configuration
	Load LoadConfig `json:"load" yaml:"load"`

	// Store holds the staging database settings
	Store StoreConfig `json:"store" yaml:"store"`

	// Archive holds the post-load archive settings
	Archive ArchiveConfig `json:"archive" yaml:"archive"`
}

// GenerateConfig holds event generation configuration.
type GenerateConfig struct {
	// OutputDir is the directory batch files are written to
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// PageViews is the number of page_view events per batch
	PageViews int `json:"page_views" yaml:"page_views"`

	// AddToCarts is the number of add_to_cart events per batch
	AddToCarts int `json:"add_to_carts" yaml:"add_to_carts"`

	// Purchases is the number of purchase events per batch
	Purchases int `json:"purchases" yaml:"purchases"`

	// Reviews is the number of product_review events per batch
	Reviews int `json:"reviews" yaml:"reviews"`

	// Shuffle interleaves the variants instead of writing them in blocks
	Shuffle bool `json:"shuffle" yaml:"shuffle"`

	// Seed fixes the random source for reproducible batches (0 = time-based)
	Seed int64 `json:"seed" yaml:"seed"`

	// Compress writes snappy-compressed batch files (.json.sz)
	Compress bool `json:"compress" yaml:"compress"`
}

// LoadConfig holds batch loading configuration.
type LoadConfig struct {
	// EventsDir is the directory scanned for batch files
	EventsDir string `json:"events_dir" yaml:"events_dir"`

	// ProgressEvery is how many records pass between progress log lines
	ProgressEvery int `json:"progress_every" yaml:"progress_every"`
}

// StoreConfig holds staging database configuration.
type StoreConfig struct {
	// Driver is the database/sql driver name (sqlite3)
	Driver string `json:"driver" yaml:"driver"`

	// Path is the staging database file path
	Path string `json:"path" yaml:"path"`

	// BusyTimeout is how long writes wait on a locked database
	BusyTimeout time.Duration `json:"busy_timeout" yaml:"busy_timeout"`
}

// ArchiveConfig holds post-load archive configuration.
type ArchiveConfig struct {
	// Enabled controls whether loaded batch files are archived
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Type is the archive storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local archive path (for local type)
	Path string `json:"path" yaml:"path"`

	// Prefix is prepended to archived object names
	Prefix string `json:"prefix" yaml:"prefix"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 archive configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		Mode:    ModeAll,
		DataDir: "./data/cartflow",
		Generate: GenerateConfig{
			OutputDir:  "",
			PageViews:  100,
			AddToCarts: 30,
			Purchases:  20,
			Reviews:    15,
			Shuffle:    true,
			Seed:       0,
			Compress:   false,
		},
		Load: LoadConfig{
			EventsDir:     "",
			ProgressEvery: 50,
		},
		Store: StoreConfig{
			Driver:      "sqlite3",
			Path:        "",
			BusyTimeout: 5 * time.Second,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Type:    "local",
			Path:    "",
			Prefix:  "events",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/cartflow"
	}

	// Resolve spool paths; generator and loader share one by default
	if c.Generate.OutputDir == "" {
		c.Generate.OutputDir = filepath.Join(c.DataDir, "events")
	}
	if c.Load.EventsDir == "" {
		c.Load.EventsDir = c.Generate.OutputDir
	}

	// Resolve store path
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.DataDir, "staging.db")
	}

	// Resolve archive path
	if c.Archive.Path == "" {
		c.Archive.Path = filepath.Join(c.DataDir, "archive")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeAll, ModeGenerate, ModeLoad:
		// Valid modes
	default:
		return fmt.Errorf("invalid mode: %s (must be all, generate, or load)", c.Mode)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	for _, count := range []struct {
		name  string
		value int
	}{
		{"generate.page_views", c.Generate.PageViews},
		{"generate.add_to_carts", c.Generate.AddToCarts},
		{"generate.purchases", c.Generate.Purchases},
		{"generate.reviews", c.Generate.Reviews},
	} {
		if count.value < 0 {
			return fmt.Errorf("%s must not be negative, got %d", count.name, count.value)
		}
	}

	if c.Load.ProgressEvery < 1 {
		return fmt.Errorf("load.progress_every must be at least 1, got %d", c.Load.ProgressEvery)
	}

	if c.Store.Driver != "sqlite3" {
		return fmt.Errorf("invalid store driver: %s (must be sqlite3)", c.Store.Driver)
	}

	if c.Archive.Type != "local" && c.Archive.Type != "s3" {
		return fmt.Errorf("invalid archive type: %s (must be local or s3)", c.Archive.Type)
	}

	if c.Archive.Enabled && c.Archive.Type == "s3" && c.Archive.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when archive type is s3")
	}

	return nil
}

// ShouldGenerate returns true if the generate stage should run.
func (c *Config) ShouldGenerate() bool {
	return c.Mode == ModeAll || c.Mode == ModeGenerate
}

// ShouldLoad returns true if the load stage should run.
func (c *Config) ShouldLoad() bool {
	return c.Mode == ModeAll || c.Mode == ModeLoad
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the CARTFLOW_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("CARTFLOW_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("CARTFLOW_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Spool directory, shared by both stages
	if v := os.Getenv("CARTFLOW_EVENTS_DIR"); v != "" {
		cfg.Generate.OutputDir = v
		cfg.Load.EventsDir = v
	}

	// Generate configuration
	if v := os.Getenv("CARTFLOW_GENERATE_PAGE_VIEWS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Generate.PageViews)
	}
	if v := os.Getenv("CARTFLOW_GENERATE_ADD_TO_CARTS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Generate.AddToCarts)
	}
	if v := os.Getenv("CARTFLOW_GENERATE_PURCHASES"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Generate.Purchases)
	}
	if v := os.Getenv("CARTFLOW_GENERATE_REVIEWS"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Generate.Reviews)
	}
	if v := os.Getenv("CARTFLOW_GENERATE_SHUFFLE"); v != "" {
		cfg.Generate.Shuffle = v == "true" || v == "1"
	}
	if v := os.Getenv("CARTFLOW_GENERATE_SEED"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Generate.Seed)
	}
	if v := os.Getenv("CARTFLOW_GENERATE_COMPRESS"); v != "" {
		cfg.Generate.Compress = v == "true" || v == "1"
	}

	// Load configuration
	if v := os.Getenv("CARTFLOW_LOAD_EVENTS_DIR"); v != "" {
		cfg.Load.EventsDir = v
	}
	if v := os.Getenv("CARTFLOW_LOAD_PROGRESS_EVERY"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Load.ProgressEvery)
	}

	// Store configuration
	if v := os.Getenv("CARTFLOW_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("CARTFLOW_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("CARTFLOW_STORE_BUSY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Store.BusyTimeout = d
		}
	}

	// Archive configuration
	if v := os.Getenv("CARTFLOW_ARCHIVE_ENABLED"); v != "" {
		cfg.Archive.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("CARTFLOW_ARCHIVE_TYPE"); v != "" {
		cfg.Archive.Type = v
	}
	if v := os.Getenv("CARTFLOW_ARCHIVE_PATH"); v != "" {
		cfg.Archive.Path = v
	}
	if v := os.Getenv("CARTFLOW_ARCHIVE_PREFIX"); v != "" {
		cfg.Archive.Prefix = v
	}
	if v := os.Getenv("CARTFLOW_S3_BUCKET"); v != "" {
		cfg.Archive.S3.Bucket = v
	}
	if v := os.Getenv("CARTFLOW_S3_REGION"); v != "" {
		cfg.Archive.S3.Region = v
	}
	if v := os.Getenv("CARTFLOW_S3_ENDPOINT"); v != "" {
		cfg.Archive.S3.Endpoint = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.Generate.OutputDir,
		c.Load.EventsDir,
	}
	if c.Archive.Enabled && c.Archive.Type == "local" {
		dirs = append(dirs, c.Archive.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
