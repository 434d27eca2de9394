// Package observability tracks load statistics for pipeline reporting.
package observability

import (
	"sort"
	"sync"
	"time"
)

// unknownEventType is the bucket for records whose type could not be
// determined before they failed.
const unknownEventType = "unknown"

// TypeStats holds load outcomes for one event type.
type TypeStats struct {
	EventType string
	Loaded    int64
	Failed    int64
	LastSeen  time.Time
}

// LoadStats aggregates per-event-type outcomes across a load run.
// All methods are safe for concurrent use.
type LoadStats struct {
	mu     sync.RWMutex
	byType map[string]*TypeStats
	now    func() time.Time
}

// NewLoadStats creates an empty LoadStats tracker.
func NewLoadStats() *LoadStats {
	return &LoadStats{
		byType: make(map[string]*TypeStats),
		now:    time.Now,
	}
}

// AddLoaded records n successfully loaded records of the given type.
func (s *LoadStats) AddLoaded(eventType string, n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.get(eventType)
	ts.Loaded += n
	ts.LastSeen = s.now()
}

// AddFailed records n failed records of the given type.
func (s *LoadStats) AddFailed(eventType string, n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.get(eventType)
	ts.Failed += n
	ts.LastSeen = s.now()
}

// get returns the stats bucket for eventType, creating it if needed.
// Caller must hold the write lock.
func (s *LoadStats) get(eventType string) *TypeStats {
	if eventType == "" {
		eventType = unknownEventType
	}
	ts, ok := s.byType[eventType]
	if !ok {
		ts = &TypeStats{EventType: eventType}
		s.byType[eventType] = ts
	}
	return ts
}

// Totals returns the loaded and failed counts summed over all types.
func (s *LoadStats) Totals() (loaded, failed int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ts := range s.byType {
		loaded += ts.Loaded
		failed += ts.Failed
	}
	return loaded, failed
}

// Snapshot returns a copy of the per-type stats sorted by volume,
// busiest type first. Ties break on the type name so output is stable.
func (s *LoadStats) Snapshot() []TypeStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TypeStats, 0, len(s.byType))
	for _, ts := range s.byType {
		out = append(out, *ts)
	}
	sort.Slice(out, func(i, j int) bool {
		vi := out[i].Loaded + out[i].Failed
		vj := out[j].Loaded + out[j].Failed
		if vi != vj {
			return vi > vj
		}
		return out[i].EventType < out[j].EventType
	})
	return out
}

// Reset clears all accumulated stats.
func (s *LoadStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byType = make(map[string]*TypeStats)
}
