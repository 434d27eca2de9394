package staging

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/cartflow/cartflow/internal/errors"
	"github.com/cartflow/cartflow/pkg/types"
)

// MemStore is an in-memory Store for tests. It enforces event_id uniqueness
// the way the real table's primary key does and supports injected failures
// for exercising the loader's error paths.
type MemStore struct {
	mu        sync.Mutex
	pending   []*types.Row
	committed []*types.Row
	ids       map[string]bool
	history   []LoadRecord

	// FailInsertIDs makes Insert reject specific events (recoverable).
	FailInsertIDs map[string]bool

	// InsertErr, when set, is returned verbatim by every Insert.
	InsertErr error

	// CommitErr, when set, is returned by the next Commit.
	CommitErr error

	// Commits counts Commit calls; Closed reports whether Close ran.
	Commits int
	Closed  bool
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		ids:           make(map[string]bool),
		FailInsertIDs: make(map[string]bool),
	}
}

// Insert stages a row, rejecting duplicates and injected failures.
func (m *MemStore) Insert(ctx context.Context, row *types.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertErr != nil {
		return m.InsertErr
	}
	if m.FailInsertIDs[row.EventID] {
		return apperrors.NewStoreWriteError(fmt.Sprintf("injected failure for event %s", row.EventID), nil)
	}
	if m.ids[row.EventID] {
		return apperrors.NewStoreWriteError(fmt.Sprintf("duplicate event %s", row.EventID), nil)
	}

	m.ids[row.EventID] = true
	m.pending = append(m.pending, row)
	return nil
}

// Commit moves staged rows to the committed set.
func (m *MemStore) Commit(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Commits++
	if m.CommitErr != nil {
		err := m.CommitErr
		m.CommitErr = nil
		m.rollbackLocked()
		return err
	}

	m.committed = append(m.committed, m.pending...)
	m.pending = nil
	return nil
}

// Rollback discards staged rows.
func (m *MemStore) Rollback(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollbackLocked()
	return nil
}

// RecordLoad appends to the in-memory audit trail.
func (m *MemStore) RecordLoad(ctx context.Context, rec LoadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, rec)
	return nil
}

// Close discards staged rows.
func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rollbackLocked()
	m.Closed = true
	return nil
}

func (m *MemStore) rollbackLocked() {
	for _, row := range m.pending {
		delete(m.ids, row.EventID)
	}
	m.pending = nil
}

// Committed returns the committed rows in insert order.
func (m *MemStore) Committed() []*types.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.Row, len(m.committed))
	copy(out, m.committed)
	return out
}

// Pending returns the number of staged, uncommitted rows.
func (m *MemStore) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// History returns the recorded load attempts.
func (m *MemStore) History() []LoadRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]LoadRecord, len(m.history))
	copy(out, m.history)
	return out
}
