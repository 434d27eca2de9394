package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/cartflow/cartflow/internal/errors"
	"github.com/cartflow/cartflow/pkg/types"
)

func strPtr(s string) *string        { return &s }
func int64Ptr(v int64) *int64        { return &v }
func f64Ptr(v float64) *float64      { return &v }
func boolPtr(b bool) *bool           { return &b }
func timePtr(t time.Time) *time.Time { return &t }

func pageViewRow(id string) *types.Row {
	return &types.Row{
		EventID:   id,
		EventType: "page_view",
		UserID:    1001,
		EventTime: time.Date(2026, 8, 22, 10, 0, 0, 0, time.UTC),
		SessionID: strPtr("s-1"),
		PageURL:   strPtr("/products/home/index"),
		Device:    strPtr("desktop"),
		Browser:   strPtr("Safari"),
	}
}

func purchaseRow(id string) *types.Row {
	return &types.Row{
		EventID:       id,
		EventType:     "purchase",
		UserID:        2002,
		EventTime:     time.Date(2026, 8, 22, 10, 1, 0, 0, time.UTC),
		OrderID:       strPtr("o-1"),
		TotalAmount:   f64Ptr(149.97),
		ItemsCount:    int64Ptr(3),
		PaymentMethod: strPtr("apple_pay"),
		ShippingCity:  strPtr("Boulder"),
		ShippingState: strPtr("CO"),
		ShippingZip:   strPtr("80301"),
	}
}

func reviewRow(id string) *types.Row {
	return &types.Row{
		EventID:          id,
		EventType:        "product_review",
		UserID:           3003,
		EventTime:        time.Date(2026, 8, 22, 10, 2, 0, 0, time.UTC),
		ProductID:        int64Ptr(512),
		Rating:           int64Ptr(4),
		ReviewText:       strPtr("Quiet, compact, and easy to clean."),
		VerifiedPurchase: boolPtr(true),
	}
}

func openTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "cartflow-staging-*")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "staging.db")
	store, err := OpenSQLite(context.Background(), Config{Path: path})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store, path
}

func TestSQLiteStore_InsertCommitCount(t *testing.T) {
	ctx := context.Background()
	store, path := openTestStore(t)

	rows := []*types.Row{pageViewRow("e-1"), purchaseRow("e-2"), reviewRow("e-3")}
	for _, row := range rows {
		if err := store.Insert(ctx, row); err != nil {
			t.Fatalf("insert %s: %v", row.EventID, err)
		}
	}
	if err := store.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	n, err := store.CountEvents(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Committed rows survive reopening.
	store2, err := OpenSQLite(ctx, Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store2.Close()
	n, err = store2.CountEvents(ctx)
	if err != nil {
		t.Fatalf("count after reopen: %v", err)
	}
	if n != 3 {
		t.Errorf("count after reopen = %d, want 3", n)
	}
}

func TestSQLiteStore_DuplicateEventID(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)
	defer store.Close()

	if err := store.Insert(ctx, pageViewRow("e-dup")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := store.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	err := store.Insert(ctx, pageViewRow("e-dup"))
	if err == nil {
		t.Fatal("duplicate event_id should be rejected")
	}
	if !apperrors.IsRecoverable(err) {
		t.Errorf("duplicate rejection should be recoverable, got %v", err)
	}
	if apperrors.GetCategory(err) != apperrors.ErrCategoryStore {
		t.Errorf("category = %s, want STORE", apperrors.GetCategory(err))
	}

	// The failed insert must not poison the rest of the transaction.
	if err := store.Insert(ctx, purchaseRow("e-next")); err != nil {
		t.Fatalf("insert after rejection: %v", err)
	}
	if err := store.Commit(ctx); err != nil {
		t.Fatalf("commit after rejection: %v", err)
	}
	n, err := store.CountEvents(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestSQLiteStore_CloseDiscardsUncommitted(t *testing.T) {
	ctx := context.Background()
	store, path := openTestStore(t)

	if err := store.Insert(ctx, pageViewRow("e-pending")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store2, err := OpenSQLite(ctx, Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store2.Close()
	n, err := store2.CountEvents(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("uncommitted rows survived close, count = %d", n)
	}
}

func TestSQLiteStore_NullColumns(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)
	defer store.Close()

	if err := store.Insert(ctx, pageViewRow("e-null")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var pageURL *string
	var productID *int64
	var totalAmount *float64
	var verified *bool
	err := store.db.QueryRowContext(ctx, `
		SELECT page_url, product_id, total_amount, verified_purchase
		FROM staging_events WHERE event_id = ?`, "e-null").
		Scan(&pageURL, &productID, &totalAmount, &verified)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	if pageURL == nil || *pageURL != "/products/home/index" {
		t.Errorf("page_url = %v, want /products/home/index", pageURL)
	}
	if productID != nil {
		t.Errorf("product_id = %v, want NULL", *productID)
	}
	if totalAmount != nil {
		t.Errorf("total_amount = %v, want NULL", *totalAmount)
	}
	if verified != nil {
		t.Errorf("verified_purchase = %v, want NULL", *verified)
	}
}

func TestSQLiteStore_EmptyCommit(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)
	defer store.Close()

	if err := store.Commit(ctx); err != nil {
		t.Errorf("commit with nothing staged: %v", err)
	}
}

func TestSQLiteStore_RollbackDiscardsStaged(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)
	defer store.Close()

	if err := store.Insert(ctx, pageViewRow("e-roll-1")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, purchaseRow("e-roll-2")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Rollback(ctx); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	n, err := store.CountEvents(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("rolled-back rows survived, count = %d", n)
	}

	// The store stays usable: the next insert opens a fresh transaction
	if err := store.Insert(ctx, pageViewRow("e-roll-1")); err != nil {
		t.Fatalf("insert after rollback: %v", err)
	}
	if err := store.Commit(ctx); err != nil {
		t.Fatalf("commit after rollback: %v", err)
	}
	n, err = store.CountEvents(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestSQLiteStore_RollbackWithoutTransaction(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)
	defer store.Close()

	if err := store.Rollback(ctx); err != nil {
		t.Errorf("rollback with nothing staged: %v", err)
	}
}

func TestSQLiteStore_RecordLoadAndHistory(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)
	defer store.Close()

	minT := time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC)
	maxT := time.Date(2026, 8, 22, 9, 5, 0, 0, time.UTC)
	first := LoadRecord{
		FileName:     "events_20260822_090000_aaaaaaaa.json",
		ContentHash:  "deadbeefdeadbeefdeadbeefdeadbeef",
		RecordCount:  15,
		LoadedCount:  15,
		FailedCount:  0,
		MinEventTime: timePtr(minT),
		MaxEventTime: timePtr(maxT),
		LoadedAt:     time.Date(2026, 8, 22, 9, 6, 0, 0, time.UTC),
	}
	second := LoadRecord{
		FileName:    "events_20260822_091500_bbbbbbbb.json",
		ContentHash: "cafecafecafecafecafecafecafecafe",
		RecordCount: 10,
		LoadedCount: 9,
		FailedCount: 1,
		LoadedAt:    time.Date(2026, 8, 22, 9, 20, 0, 0, time.UTC),
	}

	if err := store.RecordLoad(ctx, first); err != nil {
		t.Fatalf("record first: %v", err)
	}
	if err := store.RecordLoad(ctx, second); err != nil {
		t.Fatalf("record second: %v", err)
	}

	history, err := store.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}

	got := history[0]
	if got.FileName != first.FileName || got.ContentHash != first.ContentHash {
		t.Errorf("first record = %+v", got)
	}
	if got.RecordCount != 15 || got.LoadedCount != 15 || got.FailedCount != 0 {
		t.Errorf("first counts = %d/%d/%d", got.RecordCount, got.LoadedCount, got.FailedCount)
	}
	if got.MinEventTime == nil || !got.MinEventTime.Equal(minT) {
		t.Errorf("min event time = %v, want %v", got.MinEventTime, minT)
	}
	if got.MaxEventTime == nil || !got.MaxEventTime.Equal(maxT) {
		t.Errorf("max event time = %v, want %v", got.MaxEventTime, maxT)
	}
	if !got.LoadedAt.Equal(first.LoadedAt) {
		t.Errorf("loaded at = %v, want %v", got.LoadedAt, first.LoadedAt)
	}

	if history[1].MinEventTime != nil || history[1].MaxEventTime != nil {
		t.Errorf("second record should have NULL time bounds, got %+v", history[1])
	}
}

func TestOpenSQLite_UnreachablePath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), Config{Path: "/nonexistent/subdir/staging.db"})
	if err == nil {
		t.Fatal("opening a database in a missing directory should fail")
	}
	if apperrors.GetCategory(err) != apperrors.ErrCategoryConnection {
		t.Errorf("category = %s, want CONNECTION", apperrors.GetCategory(err))
	}
}
