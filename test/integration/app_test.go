package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cartflow/cartflow/internal/app"
	"github.com/cartflow/cartflow/internal/batch"
	"github.com/cartflow/cartflow/internal/config"
)

// TestAppRunAllMode drives the whole pipeline the way the cartflow binary
// does: one Run generates a batch file, loads it, and archives it.
func TestAppRunAllMode(t *testing.T) {
	ctx := context.Background()

	tempDir, err := os.MkdirTemp("", "cartflow-app-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeAll
	cfg.DataDir = tempDir
	cfg.Generate.PageViews = 4
	cfg.Generate.AddToCarts = 3
	cfg.Generate.Purchases = 2
	cfg.Generate.Reviews = 1
	cfg.Generate.Seed = 7
	cfg.Archive.Enabled = true

	application, err := app.New(cfg)
	if err != nil {
		t.Fatalf("failed to create application: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// One batch file was written into the spool
	spoolFiles, err := batch.ListFiles(cfg.Load.EventsDir)
	if err != nil {
		t.Fatalf("failed to list spool: %v", err)
	}
	if len(spoolFiles) != 1 {
		t.Fatalf("spool has %d files, want 1", len(spoolFiles))
	}

	// All ten events were staged
	store := openStore(t, cfg.Store.Path)
	defer store.Close()

	n, err := store.CountEvents(ctx)
	if err != nil {
		t.Fatalf("failed to count staged events: %v", err)
	}
	if n != 10 {
		t.Errorf("staging row count = %d, want 10", n)
	}

	history, err := store.History(ctx)
	if err != nil {
		t.Fatalf("failed to read load history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history has %d records, want 1", len(history))
	}
	if history[0].LoadedCount != 10 || history[0].FailedCount != 0 {
		t.Errorf("history counts = (%d, %d), want (10, 0)",
			history[0].LoadedCount, history[0].FailedCount)
	}

	// The committed file was copied into the local archive
	archived, err := os.ReadDir(filepath.Join(tempDir, "archive", "events"))
	if err != nil {
		t.Fatalf("failed to read archive dir: %v", err)
	}
	if len(archived) != 1 {
		t.Errorf("archive has %d objects, want 1", len(archived))
	}
	if len(archived) == 1 && archived[0].Name() != filepath.Base(spoolFiles[0]) {
		t.Errorf("archived %s, want %s", archived[0].Name(), filepath.Base(spoolFiles[0]))
	}
}

// TestAppRunGenerateMode tests that generate mode writes a batch file and
// touches no staging database.
func TestAppRunGenerateMode(t *testing.T) {
	ctx := context.Background()

	tempDir, err := os.MkdirTemp("", "cartflow-app-gen-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeGenerate
	cfg.DataDir = tempDir
	cfg.Generate.PageViews = 2
	cfg.Generate.AddToCarts = 1
	cfg.Generate.Purchases = 1
	cfg.Generate.Reviews = 1

	application, err := app.New(cfg)
	if err != nil {
		t.Fatalf("failed to create application: %v", err)
	}
	if err := application.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	spoolFiles, err := batch.ListFiles(cfg.Generate.OutputDir)
	if err != nil {
		t.Fatalf("failed to list spool: %v", err)
	}
	if len(spoolFiles) != 1 {
		t.Fatalf("spool has %d files, want 1", len(spoolFiles))
	}

	records, err := batch.ReadFile(spoolFiles[0])
	if err != nil {
		t.Fatalf("failed to read batch file back: %v", err)
	}
	if len(records) != 5 {
		t.Errorf("batch file has %d records, want 5", len(records))
	}

	if _, err := os.Stat(cfg.Store.Path); !os.IsNotExist(err) {
		t.Errorf("generate mode should not create the staging database, stat err = %v", err)
	}
}

// TestAppRejectsInvalidConfig tests that App.New validates up front.
func TestAppRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Mode = config.Mode("stream")

	if _, err := app.New(cfg); err == nil {
		t.Fatal("expected an error for an invalid mode")
	}
}
