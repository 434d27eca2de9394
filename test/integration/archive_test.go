package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cartflow/cartflow/internal/batch"
	"github.com/cartflow/cartflow/internal/generate"
	"github.com/cartflow/cartflow/internal/loader"
	"github.com/cartflow/cartflow/internal/storage"
)

// TestArchiveRestoreReplay tests the archive round trip:
// load with archive → spool cleared → restore → reload
func TestArchiveRestoreReplay(t *testing.T) {
	ctx := context.Background()

	tempDir, err := os.MkdirTemp("", "cartflow-archive-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	eventsDir := filepath.Join(tempDir, "events")
	archiveDir := filepath.Join(tempDir, "archive")
	dbPath := filepath.Join(tempDir, "staging.db")

	// Write two batch files into the spool
	gen := generate.New(generate.WithSeed(99))
	writer := batch.NewWriter(eventsDir)
	for i := 0; i < 2; i++ {
		events, err := gen.GenerateBatch(generate.Counts{PageViews: 3, Purchases: 2}, true)
		if err != nil {
			t.Fatalf("failed to generate batch %d: %v", i, err)
		}
		if _, err := writer.Write(events); err != nil {
			t.Fatalf("failed to write batch %d: %v", i, err)
		}
	}

	archive, err := storage.NewLocalStorage(archiveDir)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}

	// Load with archiving enabled
	ld := loader.New(loader.WithArchive(archive, "events"))
	summary, err := ld.LoadAll(ctx, eventsDir, sqliteOpener(dbPath))
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if summary.Loaded != 10 || summary.Failed != 0 {
		t.Fatalf("summary = (%d, %d), want (10, 0)", summary.Loaded, summary.Failed)
	}

	// Both committed files must have been copied into the archive
	objects, err := archive.ListObjects(ctx, "events")
	if err != nil {
		t.Fatalf("failed to list archived objects: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("archived %d objects, want 2", len(objects))
	}

	// The spool files stay in place; archiving copies, it never deletes
	spoolFiles, err := batch.ListFiles(eventsDir)
	if err != nil {
		t.Fatalf("failed to list spool: %v", err)
	}
	if len(spoolFiles) != 2 {
		t.Fatalf("spool has %d files after archiving, want 2", len(spoolFiles))
	}

	// Clear the spool, then pull the archived batches back
	for _, f := range spoolFiles {
		if err := os.Remove(f); err != nil {
			t.Fatalf("failed to clear spool file %s: %v", f, err)
		}
	}

	restorer := storage.NewRestorer(archive, 2, eventsDir)
	result, err := restorer.Restore(ctx, "events")
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if result.Downloads != 2 || result.Skipped != 0 || len(result.Errors) != 0 {
		t.Fatalf("restore = %d downloaded, %d skipped, %d errors; want 2, 0, 0",
			result.Downloads, result.Skipped, len(result.Errors))
	}

	restored, err := batch.ListFiles(eventsDir)
	if err != nil {
		t.Fatalf("failed to list restored spool: %v", err)
	}
	if len(restored) != 2 {
		t.Fatalf("spool has %d files after restore, want 2", len(restored))
	}

	// Replaying the restored files finds every record already staged
	replay, err := loader.New(loader.WithArchive(archive, "events")).LoadAll(ctx, eventsDir, sqliteOpener(dbPath))
	if err != nil {
		t.Fatalf("replay LoadAll should not abort, got %v", err)
	}
	if replay.Loaded != 0 || replay.Failed != 10 {
		t.Errorf("replay = (%d, %d), want (0, 10)", replay.Loaded, replay.Failed)
	}

	store := openStore(t, dbPath)
	defer store.Close()

	n, err := store.CountEvents(ctx)
	if err != nil {
		t.Fatalf("failed to count staged events: %v", err)
	}
	if n != 10 {
		t.Errorf("staging row count = %d, want 10", n)
	}
}

// TestArchiveIsIdempotent tests that a second load pass does not duplicate
// archive objects.
func TestArchiveIsIdempotent(t *testing.T) {
	ctx := context.Background()

	tempDir, err := os.MkdirTemp("", "cartflow-archive-idem-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	eventsDir := filepath.Join(tempDir, "events")
	archiveDir := filepath.Join(tempDir, "archive")
	dbPath := filepath.Join(tempDir, "staging.db")

	gen := generate.New(generate.WithSeed(13))
	events, err := gen.GenerateBatch(generate.Counts{AddToCarts: 4}, false)
	if err != nil {
		t.Fatalf("failed to generate batch: %v", err)
	}
	if _, err := batch.NewWriter(eventsDir).Write(events); err != nil {
		t.Fatalf("failed to write batch: %v", err)
	}

	archive, err := storage.NewLocalStorage(archiveDir)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}

	for pass := 0; pass < 2; pass++ {
		ld := loader.New(loader.WithArchive(archive, "events"))
		if _, err := ld.LoadAll(ctx, eventsDir, sqliteOpener(dbPath)); err != nil {
			t.Fatalf("pass %d failed: %v", pass, err)
		}
	}

	objects, err := archive.ListObjects(ctx, "events")
	if err != nil {
		t.Fatalf("failed to list archived objects: %v", err)
	}
	if len(objects) != 1 {
		t.Errorf("archived %d objects after two passes, want 1", len(objects))
	}
}
