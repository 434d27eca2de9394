package staging

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "github.com/cartflow/cartflow/internal/errors"
	"github.com/cartflow/cartflow/pkg/types"
)

// Config holds the staging database settings.
type Config struct {
	// Driver is the database/sql driver name; defaults to sqlite3
	Driver string

	// Path is the database file path
	Path string

	// BusyTimeout is how long writes wait on a locked database
	BusyTimeout time.Duration
}

// Open implements Opener, so a Config can be handed straight to the loader.
func (c Config) Open(ctx context.Context) (Store, error) {
	return OpenSQLite(ctx, c)
}

// SQLiteStore implements Store and HistoryRecorder over a SQLite staging
// database. Inserts run inside one explicit transaction, begun lazily on
// the first Insert and ended by Commit, so a batch file is all-or-visible
// at commit granularity while individual rejected rows are reported back
// as recoverable errors.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string

	insertStmt *sql.Stmt

	mu     sync.Mutex
	tx     *sql.Tx
	txStmt *sql.Stmt
}

// OpenSQLite opens (creating if needed) the staging database, verifies the
// connection, and initializes the schema. Failures here are connection
// errors: the caller should stop before touching any batch file.
func OpenSQLite(ctx context.Context, cfg Config) (*SQLiteStore, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "sqlite3"
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	// Single writer with WAL mode
	db, err := sql.Open(driver, fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d", cfg.Path, busy.Milliseconds()))
	if err != nil {
		return nil, apperrors.NewConnectionError("failed to open staging database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.Wrap(apperrors.ErrCategoryConnection, apperrors.CodePingFailed,
			"staging database is unreachable", err)
	}

	store := &SQLiteStore{db: db, dbPath: cfg.Path}

	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewConnectionError("failed to initialize staging schema", err)
	}

	insertStmt, err := db.PrepareContext(ctx, InsertEventSQL)
	if err != nil {
		db.Close()
		return nil, apperrors.NewConnectionError("failed to prepare insert statement", err)
	}
	store.insertStmt = insertStmt

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	for _, stmt := range AllSchemaSQL() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Insert stages one row inside the current transaction, beginning one if
// none is open. A rejected row (constraint violation, bad value) comes back
// as a recoverable store write error; failing to begin the transaction at
// all does not.
func (s *SQLiteStore) Insert(ctx context.Context, row *types.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCategoryStore, apperrors.CodeBeginFailed,
				"failed to begin staging transaction", err)
		}
		s.tx = tx
		s.txStmt = tx.StmtContext(ctx, s.insertStmt)
	}

	_, err := s.txStmt.ExecContext(ctx,
		row.EventID, row.EventType, row.UserID, row.SessionID, row.EventTime.UnixNano(),
		row.PageURL, row.Device, row.Browser,
		row.ProductID, row.ProductName, row.Price, row.Quantity,
		row.OrderID, row.TotalAmount, row.ItemsCount, row.PaymentMethod,
		row.ShippingCity, row.ShippingState, row.ShippingZip,
		row.Rating, row.ReviewText, row.VerifiedPurchase,
	)
	if err != nil {
		return apperrors.NewStoreWriteError(fmt.Sprintf("failed to insert event %s", row.EventID), err)
	}
	return nil
}

// Commit ends the current transaction, making staged rows durable. With no
// open transaction it is a no-op, so committing an empty file is fine.
func (s *SQLiteStore) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}

	if s.txStmt != nil {
		s.txStmt.Close()
		s.txStmt = nil
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return apperrors.NewCommitError("failed to commit staged events", err)
	}
	return nil
}

// Rollback discards the current transaction's staged rows. With no open
// transaction it is a no-op.
func (s *SQLiteStore) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollbackLocked()
}

func (s *SQLiteStore) rollbackLocked() error {
	if s.tx == nil {
		return nil
	}
	if s.txStmt != nil {
		s.txStmt.Close()
		s.txStmt = nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	if err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("staging: failed to roll back staged events: %w", err)
	}
	return nil
}

// RecordLoad appends one row to the load audit trail.
func (s *SQLiteStore) RecordLoad(ctx context.Context, rec LoadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var minNanos, maxNanos *int64
	if rec.MinEventTime != nil {
		v := rec.MinEventTime.UnixNano()
		minNanos = &v
	}
	if rec.MaxEventTime != nil {
		v := rec.MaxEventTime.UnixNano()
		maxNanos = &v
	}
	loadedAt := rec.LoadedAt
	if loadedAt.IsZero() {
		loadedAt = time.Now()
	}

	const insertSQL = `
		INSERT INTO load_history (
			file_name, content_hash, record_count, loaded_count, failed_count,
			min_event_time, max_event_time, loaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	args := []interface{}{
		rec.FileName, rec.ContentHash, rec.RecordCount, rec.LoadedCount, rec.FailedCount,
		minNanos, maxNanos, loadedAt.UnixNano(),
	}

	// The pool is a single connection; an open transaction owns it, so
	// route through the transaction when one is active.
	var err error
	if s.tx != nil {
		_, err = s.tx.ExecContext(ctx, insertSQL, args...)
	} else {
		_, err = s.db.ExecContext(ctx, insertSQL, args...)
	}
	if err != nil {
		return fmt.Errorf("staging: failed to record load: %w", err)
	}
	return nil
}

// History returns the load audit trail, oldest first.
func (s *SQLiteStore) History(ctx context.Context) ([]LoadRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const historySQL = `
		SELECT file_name, content_hash, record_count, loaded_count, failed_count,
		       min_event_time, max_event_time, loaded_at
		FROM load_history ORDER BY loaded_at`

	// The pool is a single connection; an open transaction owns it.
	var rows *sql.Rows
	var err error
	if s.tx != nil {
		rows, err = s.tx.QueryContext(ctx, historySQL)
	} else {
		rows, err = s.db.QueryContext(ctx, historySQL)
	}
	if err != nil {
		return nil, fmt.Errorf("staging: failed to query load history: %w", err)
	}
	defer rows.Close()

	var records []LoadRecord
	for rows.Next() {
		var rec LoadRecord
		var minNanos, maxNanos *int64
		var loadedAt int64
		if err := rows.Scan(&rec.FileName, &rec.ContentHash, &rec.RecordCount,
			&rec.LoadedCount, &rec.FailedCount, &minNanos, &maxNanos, &loadedAt); err != nil {
			return nil, fmt.Errorf("staging: failed to scan load history: %w", err)
		}
		if minNanos != nil {
			t := time.Unix(0, *minNanos).UTC()
			rec.MinEventTime = &t
		}
		if maxNanos != nil {
			t := time.Unix(0, *maxNanos).UTC()
			rec.MaxEventTime = &t
		}
		rec.LoadedAt = time.Unix(0, loadedAt).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountEvents returns the number of rows in staging_events, including any
// staged in the current transaction.
func (s *SQLiteStore) CountEvents(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	const countSQL = `SELECT COUNT(*) FROM staging_events`
	var n int64
	var err error
	if s.tx != nil {
		err = s.tx.QueryRowContext(ctx, countSQL).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, countSQL).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("staging: failed to count events: %w", err)
	}
	return n, nil
}

// Close rolls back any open transaction and releases the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.rollbackLocked(); err != nil {
		log.Printf("[WARN] staging: rollback on close failed: %v", err)
	}
	if s.insertStmt != nil {
		s.insertStmt.Close()
	}
	return s.db.Close()
}
