package types

import (
	"encoding/json"
	"fmt"
)

// EventType tags the four clickstream event variants.
type EventType string

const (
	EventTypePageView      EventType = "page_view"
	EventTypeAddToCart     EventType = "add_to_cart"
	EventTypePurchase      EventType = "purchase"
	EventTypeProductReview EventType = "product_review"
)

// AllEventTypes returns the known variants in their canonical order.
func AllEventTypes() []EventType {
	return []EventType{
		EventTypePageView,
		EventTypeAddToCart,
		EventTypePurchase,
		EventTypeProductReview,
	}
}

// PageView is the payload of a page_view event.
type PageView struct {
	SessionID string `json:"session_id"`
	PageURL   string `json:"page_url"`
	Device    string `json:"device"`
	Browser   string `json:"browser"`
}

// AddToCart is the payload of an add_to_cart event.
type AddToCart struct {
	SessionID   string  `json:"session_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Quantity    int64   `json:"quantity"`
}

// ShippingAddress is the nested destination block of a purchase event.
type ShippingAddress struct {
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// Purchase is the payload of a purchase event.
type Purchase struct {
	OrderID         string          `json:"order_id"`
	TotalAmount     float64         `json:"total_amount"`
	ItemsCount      int64           `json:"items_count"`
	PaymentMethod   string          `json:"payment_method"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
}

// ProductReview is the payload of a product_review event.
type ProductReview struct {
	ProductID        int64  `json:"product_id"`
	Rating           int64  `json:"rating"`
	ReviewText       string `json:"review_text"`
	VerifiedPurchase bool   `json:"verified_purchase"`
}

// Event is a tagged union over the four clickstream variants. The head
// fields are common to every variant; exactly one payload pointer is set
// and it matches Type. Timestamp stays in its wire form (ISO-8601 text)
// until the loader maps the event onto a staging row.
type Event struct {
	ID        string
	Type      EventType
	UserID    int64
	Timestamp string

	PageView      *PageView
	AddToCart     *AddToCart
	Purchase      *Purchase
	ProductReview *ProductReview
}

// eventHead carries the fields shared by every variant. Events marshal
// flat: head fields and payload fields are siblings in one JSON object.
type eventHead struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	UserID    int64     `json:"user_id"`
	Timestamp string    `json:"timestamp"`
}

func (e Event) head() eventHead {
	return eventHead{
		EventID:   e.ID,
		EventType: e.Type,
		UserID:    e.UserID,
		Timestamp: e.Timestamp,
	}
}

// MarshalJSON encodes the event as a single flat object. It fails when the
// payload for the tag is missing or the tag is unknown.
func (e Event) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventTypePageView:
		if e.PageView == nil {
			return nil, fmt.Errorf("%w: %s without payload", ErrPayloadMismatch, e.Type)
		}
		return json.Marshal(struct {
			eventHead
			*PageView
		}{e.head(), e.PageView})
	case EventTypeAddToCart:
		if e.AddToCart == nil {
			return nil, fmt.Errorf("%w: %s without payload", ErrPayloadMismatch, e.Type)
		}
		return json.Marshal(struct {
			eventHead
			*AddToCart
		}{e.head(), e.AddToCart})
	case EventTypePurchase:
		if e.Purchase == nil {
			return nil, fmt.Errorf("%w: %s without payload", ErrPayloadMismatch, e.Type)
		}
		return json.Marshal(struct {
			eventHead
			*Purchase
		}{e.head(), e.Purchase})
	case EventTypeProductReview:
		if e.ProductReview == nil {
			return nil, fmt.Errorf("%w: %s without payload", ErrPayloadMismatch, e.Type)
		}
		return json.Marshal(struct {
			eventHead
			*ProductReview
		}{e.head(), e.ProductReview})
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, string(e.Type))
}

// UnmarshalJSON reads the event_type tag first, then decodes the matching
// payload from the same object.
func (e *Event) UnmarshalJSON(b []byte) error {
	var head eventHead
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}

	e.ID = head.EventID
	e.Type = head.EventType
	e.UserID = head.UserID
	e.Timestamp = head.Timestamp
	e.PageView = nil
	e.AddToCart = nil
	e.Purchase = nil
	e.ProductReview = nil

	switch head.EventType {
	case EventTypePageView:
		e.PageView = new(PageView)
		return json.Unmarshal(b, e.PageView)
	case EventTypeAddToCart:
		e.AddToCart = new(AddToCart)
		return json.Unmarshal(b, e.AddToCart)
	case EventTypePurchase:
		e.Purchase = new(Purchase)
		return json.Unmarshal(b, e.Purchase)
	case EventTypeProductReview:
		e.ProductReview = new(ProductReview)
		return json.Unmarshal(b, e.ProductReview)
	}
	return fmt.Errorf("%w: %q", ErrUnknownEventType, string(head.EventType))
}

// Validate checks the union invariants: a non-empty event_id, a known tag,
// and exactly one payload set, matching the tag.
func (e *Event) Validate() error {
	if e.ID == "" {
		return ErrMissingEventID
	}

	set := 0
	if e.PageView != nil {
		set++
	}
	if e.AddToCart != nil {
		set++
	}
	if e.Purchase != nil {
		set++
	}
	if e.ProductReview != nil {
		set++
	}

	var match bool
	switch e.Type {
	case EventTypePageView:
		match = e.PageView != nil
	case EventTypeAddToCart:
		match = e.AddToCart != nil
	case EventTypePurchase:
		match = e.Purchase != nil
	case EventTypeProductReview:
		match = e.ProductReview != nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEventType, string(e.Type))
	}
	if !match || set != 1 {
		return fmt.Errorf("%w: %s", ErrPayloadMismatch, e.Type)
	}
	return nil
}
