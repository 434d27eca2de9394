package staging

import (
	"context"
	"time"

	"github.com/cartflow/cartflow/pkg/types"
)

// Store is the loader's whole dependency surface: stage rows one at a time,
// make them durable with a single Commit per batch file, and release the
// connection with Close. Nothing staged is visible until Commit; Rollback
// discards staged rows so one file's leftovers never ride along with the
// next file's commit.
type Store interface {
	// Insert stages one flattened event row.
	Insert(ctx context.Context, row *types.Row) error

	// Commit makes all rows staged since the last Commit durable.
	Commit(ctx context.Context) error

	// Rollback discards all rows staged since the last Commit.
	Rollback(ctx context.Context) error

	// Close releases the store, rolling back any uncommitted rows.
	Close() error
}

// LoadRecord describes one load attempt of one batch file.
type LoadRecord struct {
	FileName     string
	ContentHash  string
	RecordCount  int
	LoadedCount  int
	FailedCount  int
	MinEventTime *time.Time
	MaxEventTime *time.Time
	LoadedAt     time.Time
}

// HistoryRecorder is implemented by stores that keep a load audit trail.
// The loader discovers it by type assertion and treats recording as
// best-effort.
type HistoryRecorder interface {
	RecordLoad(ctx context.Context, rec LoadRecord) error
}

// Opener acquires a Store. The loader owns the resulting lifecycle: one
// Open per run, one Close on every path out.
type Opener interface {
	Open(ctx context.Context) (Store, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context) (Store, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context) (Store, error) {
	return f(ctx)
}
