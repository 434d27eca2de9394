// Package staging persists flattened events into the staging database.
package staging

// Schema contains the SQL definitions for the staging database (staging.db).
// staging_events is the wide landing table: one row per event, the union of
// all variant fields, with NULL in the columns a variant does not carry.

// CreateStagingEventsTableSQL creates the staging_events landing table.
// event_id is the primary key, so reloading a batch file re-attempts every
// record and each duplicate is rejected row by row.
const CreateStagingEventsTableSQL = `
CREATE TABLE IF NOT EXISTS staging_events (
    event_id TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    user_id INTEGER NOT NULL,
    session_id TEXT,
    event_time INTEGER NOT NULL,
    page_url TEXT,
    device TEXT,
    browser TEXT,
    product_id INTEGER,
    product_name TEXT,
    price REAL,
    quantity INTEGER,
    order_id TEXT,
    total_amount REAL,
    items_count INTEGER,
    payment_method TEXT,
    shipping_city TEXT,
    shipping_state TEXT,
    shipping_zip TEXT,
    rating INTEGER,
    review_text TEXT,
    verified_purchase INTEGER
)`

// CreateStagingEventsIndexesSQL creates indexes for the common downstream
// access patterns: per-user timelines and per-variant slices.
var CreateStagingEventsIndexesSQL = []string{
	`CREATE INDEX IF NOT EXISTS idx_staging_user_time ON staging_events(user_id, event_time)`,
	`CREATE INDEX IF NOT EXISTS idx_staging_type ON staging_events(event_type)`,
}

// CreateLoadHistoryTableSQL creates the load audit table. It records what
// each load attempt saw and did; it is never consulted to skip a file.
const CreateLoadHistoryTableSQL = `
CREATE TABLE IF NOT EXISTS load_history (
    file_name TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    record_count INTEGER NOT NULL,
    loaded_count INTEGER NOT NULL,
    failed_count INTEGER NOT NULL,
    min_event_time INTEGER,
    max_event_time INTEGER,
    loaded_at INTEGER NOT NULL,
    PRIMARY KEY (file_name, loaded_at)
)`

// InsertEventSQL is the prepared insert for staging_events.
const InsertEventSQL = `
INSERT INTO staging_events (
    event_id, event_type, user_id, session_id, event_time,
    page_url, device, browser,
    product_id, product_name, price, quantity,
    order_id, total_amount, items_count, payment_method,
    shipping_city, shipping_state, shipping_zip,
    rating, review_text, verified_purchase
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// AllSchemaSQL returns all SQL statements needed to initialize the staging
// database.
func AllSchemaSQL() []string {
	statements := []string{
		CreateStagingEventsTableSQL,
		CreateLoadHistoryTableSQL,
	}
	statements = append(statements, CreateStagingEventsIndexesSQL...)
	return statements
}
