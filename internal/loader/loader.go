package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/cartflow/cartflow/internal/batch"
	apperrors "github.com/cartflow/cartflow/internal/errors"
	"github.com/cartflow/cartflow/internal/observability"
	"github.com/cartflow/cartflow/internal/staging"
	"github.com/cartflow/cartflow/internal/storage"
	"github.com/cartflow/cartflow/pkg/types"
)

// Loader drives batch files through decode, map, insert, and commit.
type Loader struct {
	progressEvery int
	archive       storage.ObjectStorage
	archivePrefix string
	now           func() time.Time
}

// Option configures a Loader.
type Option func(*Loader)

// WithProgressEvery sets how many records pass between progress log lines.
func WithProgressEvery(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.progressEvery = n
		}
	}
}

// WithArchive copies each cleanly committed batch file to object storage
// under the given prefix. The spool file itself is never deleted.
func WithArchive(store storage.ObjectStorage, prefix string) Option {
	return func(l *Loader) {
		l.archive = store
		l.archivePrefix = prefix
	}
}

// WithClock overrides the load-history timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Loader with the given options applied.
func New(opts ...Option) *Loader {
	l := &Loader{
		progressEvery: 50,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile loads one batch file into the store. Records that fail to
// decode, map, or insert are counted and skipped; everything staged is
// then committed at once. The returned error is nil unless the whole
// file failed: unreadable document, commit failure, or a non-recoverable
// store error. A failed file never leaves staged rows behind.
func (l *Loader) LoadFile(ctx context.Context, path string, store staging.Store) (*FileReport, error) {
	report := newFileReport(path)

	records, err := batch.ReadFile(path)
	if err != nil {
		report.Err = err
		return report, err
	}
	report.RecordCount = len(records)

	for i, raw := range records {
		if err := ctx.Err(); err != nil {
			l.discard(ctx, store, path)
			report.failStaged()
			report.Err = err
			return report, err
		}

		row, eventType, err := decodeRecord(raw)
		if err == nil {
			err = store.Insert(ctx, row)
		}

		switch {
		case err == nil:
			report.Loaded++
			report.LoadedByType[row.EventType]++
			report.observeTime(row.EventTime)
		case apperrors.IsRecoverable(err):
			report.Failed++
			report.FailedByType[string(eventType)]++
			report.RecordErrors = append(report.RecordErrors, RecordError{Index: i, Err: err})
		default:
			l.discard(ctx, store, path)
			report.failStaged()
			report.Err = err
			return report, fmt.Errorf("loader: record %d in %s: %w", i, filepath.Base(path), err)
		}

		if (i+1)%l.progressEvery == 0 {
			log.Printf("loader: %s: processed %d/%d records", filepath.Base(path), i+1, len(records))
		}
	}

	if err := store.Commit(ctx); err != nil {
		// Nothing in this file survived the failed commit.
		report.failStaged()
		report.Err = err
		return report, err
	}

	l.recordHistory(ctx, store, report)
	return report, nil
}

// discard rolls back mid-file so an aborted file's staged rows cannot ride
// along with the next file's commit.
func (l *Loader) discard(ctx context.Context, store staging.Store, path string) {
	if err := store.Rollback(ctx); err != nil {
		log.Printf("[WARN] loader: discarding staged rows for %s: %v", filepath.Base(path), err)
	}
}

// decodeRecord unmarshals one raw record and maps it onto a staging row.
// The event type is returned even on failure when it could be determined,
// so failures can be tallied per type.
func decodeRecord(raw json.RawMessage) (*types.Row, types.EventType, error) {
	var ev types.Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		code := apperrors.CodeMalformedEvent
		if errors.Is(err, types.ErrUnknownEventType) {
			code = apperrors.CodeUnknownType
		}
		return nil, ev.Type, apperrors.NewMalformedEventError(code,
			"record does not decode as an event", err)
	}

	row, err := MapToRow(&ev)
	if err != nil {
		return nil, ev.Type, err
	}
	return row, ev.Type, nil
}

// recordHistory appends an audit row for a committed file when the store
// supports it. Failures here never fail the load.
func (l *Loader) recordHistory(ctx context.Context, store staging.Store, report *FileReport) {
	recorder, ok := store.(staging.HistoryRecorder)
	if !ok {
		return
	}

	hash, err := batch.Fingerprint(report.Path)
	if err != nil {
		log.Printf("[WARN] loader: fingerprint for %s: %v", report.Path, err)
	}

	rec := staging.LoadRecord{
		FileName:     filepath.Base(report.Path),
		ContentHash:  hash,
		RecordCount:  report.RecordCount,
		LoadedCount:  report.Loaded,
		FailedCount:  report.Failed,
		MinEventTime: report.MinEventTime,
		MaxEventTime: report.MaxEventTime,
		LoadedAt:     l.now(),
	}
	if err := recorder.RecordLoad(ctx, rec); err != nil {
		log.Printf("[WARN] loader: recording load history for %s: %v", report.Path, err)
	}
}

// LoadAll loads every batch file under dir through one store connection.
// The store is opened before any file is touched, so an unreachable
// store fails the run up front, and it is released on every path out.
// Per-file failures are recorded and the run continues; only connection
// loss or cancellation aborts it.
func (l *Loader) LoadAll(ctx context.Context, dir string, opener staging.Opener) (*Summary, error) {
	store, err := opener.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("loader: cannot reach staging store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("[WARN] loader: closing staging store: %v", err)
		}
	}()

	files, err := batch.ListFiles(dir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Dir: dir}
	if len(files) == 0 {
		log.Printf("[WARN] loader: no batch files found in %s", dir)
		return summary, nil
	}

	stats := observability.NewLoadStats()
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			summary.ByType = stats.Snapshot()
			return summary, err
		}

		report, err := l.LoadFile(ctx, path, store)
		summary.add(report, stats)
		if err != nil {
			if isFatal(err) {
				summary.ByType = stats.Snapshot()
				return summary, err
			}
			log.Printf("[WARN] loader: skipping %s: %v", filepath.Base(path), err)
			continue
		}

		log.Printf("loader: %s: loaded %d, failed %d", filepath.Base(path), report.Loaded, report.Failed)
		l.archiveFile(ctx, path)
	}

	summary.ByType = stats.Snapshot()
	return summary, nil
}

// isFatal reports whether an error must abort the whole run rather than
// just the current file.
func isFatal(err error) bool {
	if apperrors.GetCategory(err) == apperrors.ErrCategoryConnection {
		return true
	}
	// A transaction that cannot even begin means the connection is gone.
	if apperrors.GetCode(err) == apperrors.CodeBeginFailed {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// archiveFile copies a committed batch file to the archive, best effort.
func (l *Loader) archiveFile(ctx context.Context, path string) {
	if l.archive == nil {
		return
	}

	objectPath := filepath.Base(path)
	if l.archivePrefix != "" {
		objectPath = l.archivePrefix + "/" + objectPath
	}

	if exists, err := l.archive.Exists(ctx, objectPath); err == nil && exists {
		return
	}
	if err := l.archive.Upload(ctx, path, objectPath); err != nil {
		log.Printf("[WARN] loader: archiving %s: %v", filepath.Base(path), err)
		return
	}
	log.Printf("loader: archived %s", objectPath)
}
