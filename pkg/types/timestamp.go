package types

import (
	"fmt"
	"time"
)

// zonelessEventTimeLayout matches ISO-8601 timestamps without a zone
// designator, which are read as UTC.
const zonelessEventTimeLayout = "2006-01-02T15:04:05.999999999"

// FormatEventTime renders a timestamp in the wire form events carry.
func FormatEventTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseEventTime parses the ISO-8601 timestamp text carried by an event.
// RFC 3339 forms and zoneless forms are both accepted.
func ParseEventTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(zonelessEventTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
	}
	return t, nil
}
