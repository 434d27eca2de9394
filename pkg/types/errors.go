package types

import "errors"

// Event model errors
var (
	// ErrUnknownEventType is returned when the event_type tag is not one of
	// the four known variants
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrMissingEventID is returned when an event carries no event_id
	ErrMissingEventID = errors.New("missing event_id")

	// ErrPayloadMismatch is returned when the variant payload does not match
	// the event_type tag
	ErrPayloadMismatch = errors.New("payload does not match event type")
)
