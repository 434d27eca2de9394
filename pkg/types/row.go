// Package types provides core data types for the CartFlow pipeline.
package types

import "time"

// Row represents a single flattened row in the staging_events table. It is
// the union of all event variant fields; columns that do not apply to a
// variant are nil pointers and bind as SQL NULL.
type Row struct {
	// EventID is the UUID primary key for the event
	EventID string `json:"event_id"`

	// EventType categorizes the event (e.g., "page_view", "purchase")
	EventType string `json:"event_type"`

	// UserID identifies the user who triggered the event
	UserID int64 `json:"user_id"`

	// EventTime is the parsed instant the event occurred
	EventTime time.Time `json:"event_time"`

	// SessionID groups browsing events (page_view, add_to_cart)
	SessionID *string `json:"session_id"`

	// Page view fields
	PageURL *string `json:"page_url"`
	Device  *string `json:"device"`
	Browser *string `json:"browser"`

	// Product fields (add_to_cart, product_review)
	ProductID   *int64   `json:"product_id"`
	ProductName *string  `json:"product_name"`
	Price       *float64 `json:"price"`
	Quantity    *int64   `json:"quantity"`

	// Purchase fields
	OrderID       *string  `json:"order_id"`
	TotalAmount   *float64 `json:"total_amount"`
	ItemsCount    *int64   `json:"items_count"`
	PaymentMethod *string  `json:"payment_method"`
	ShippingCity  *string  `json:"shipping_city"`
	ShippingState *string  `json:"shipping_state"`
	ShippingZip   *string  `json:"shipping_zip"`

	// Review fields
	Rating           *int64  `json:"rating"`
	ReviewText       *string `json:"review_text"`
	VerifiedPurchase *bool   `json:"verified_purchase"`
}
