// Package loader decodes batch files and loads them into the staging store.
package loader

import (
	"fmt"

	apperrors "github.com/cartflow/cartflow/internal/errors"
	"github.com/cartflow/cartflow/pkg/types"
)

// MapToRow flattens an event onto a staging row. It is total over the
// event union: any event whose tag, payload, or timestamp cannot be
// mapped yields a malformed event error rather than a partial row.
func MapToRow(e *types.Event) (*types.Row, error) {
	if e == nil {
		return nil, apperrors.NewMalformedEventError(apperrors.CodeMalformedEvent,
			"event is nil", nil)
	}
	if e.ID == "" {
		return nil, apperrors.NewMalformedEventError(apperrors.CodeMalformedEvent,
			"event is missing event_id", types.ErrMissingEventID)
	}

	eventTime, err := types.ParseEventTime(e.Timestamp)
	if err != nil {
		return nil, apperrors.NewMalformedEventError(apperrors.CodeBadTimestamp,
			fmt.Sprintf("event %s has an unparseable timestamp", e.ID), err)
	}

	row := &types.Row{
		EventID:   e.ID,
		EventType: string(e.Type),
		UserID:    e.UserID,
		EventTime: eventTime,
	}

	switch e.Type {
	case types.EventTypePageView:
		pv := e.PageView
		if pv == nil {
			return nil, missingPayload(e)
		}
		row.SessionID = ptr(pv.SessionID)
		row.PageURL = ptr(pv.PageURL)
		row.Device = ptr(pv.Device)
		row.Browser = ptr(pv.Browser)

	case types.EventTypeAddToCart:
		ac := e.AddToCart
		if ac == nil {
			return nil, missingPayload(e)
		}
		row.SessionID = ptr(ac.SessionID)
		row.ProductID = ptr(ac.ProductID)
		row.ProductName = ptr(ac.ProductName)
		row.Price = ptr(ac.Price)
		row.Quantity = ptr(ac.Quantity)

	case types.EventTypePurchase:
		p := e.Purchase
		if p == nil {
			return nil, missingPayload(e)
		}
		row.OrderID = ptr(p.OrderID)
		row.TotalAmount = ptr(p.TotalAmount)
		row.ItemsCount = ptr(p.ItemsCount)
		row.PaymentMethod = ptr(p.PaymentMethod)
		row.ShippingCity = ptr(p.ShippingAddress.City)
		row.ShippingState = ptr(p.ShippingAddress.State)
		row.ShippingZip = ptr(p.ShippingAddress.Zip)

	case types.EventTypeProductReview:
		r := e.ProductReview
		if r == nil {
			return nil, missingPayload(e)
		}
		row.ProductID = ptr(r.ProductID)
		row.Rating = ptr(r.Rating)
		row.ReviewText = ptr(r.ReviewText)
		row.VerifiedPurchase = ptr(r.VerifiedPurchase)

	default:
		return nil, apperrors.NewMalformedEventError(apperrors.CodeUnknownType,
			fmt.Sprintf("event %s has unknown type %q", e.ID, string(e.Type)),
			types.ErrUnknownEventType)
	}

	return row, nil
}

func missingPayload(e *types.Event) error {
	return apperrors.NewMalformedEventError(apperrors.CodeMalformedEvent,
		fmt.Sprintf("event %s (%s) is missing its payload", e.ID, e.Type),
		types.ErrPayloadMismatch)
}

func ptr[T any](v T) *T {
	return &v
}
