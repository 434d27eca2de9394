package loader

import (
	"fmt"
	"log"
	"time"

	"github.com/cartflow/cartflow/internal/observability"
)

// RecordError pairs a failed record's position in the batch file with the
// failure itself.
type RecordError struct {
	Index int
	Err   error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e RecordError) Unwrap() error { return e.Err }

// FileReport is the outcome of loading one batch file.
type FileReport struct {
	Path         string
	RecordCount  int
	Loaded       int
	Failed       int
	RecordErrors []RecordError

	// Per-type tallies feeding the run summary.
	LoadedByType map[string]int
	FailedByType map[string]int

	// Event-time bounds over the loaded records, nil when nothing loaded.
	MinEventTime *time.Time
	MaxEventTime *time.Time

	// Err is set when the file as a whole failed: unreadable document,
	// commit failure, or a non-recoverable store error.
	Err error
}

func newFileReport(path string) *FileReport {
	return &FileReport{
		Path:         path,
		LoadedByType: make(map[string]int),
		FailedByType: make(map[string]int),
	}
}

// failStaged converts staged successes into failures after the file's
// transaction was discarded or its commit failed.
func (r *FileReport) failStaged() {
	for eventType, n := range r.LoadedByType {
		r.FailedByType[eventType] += n
	}
	r.LoadedByType = make(map[string]int)
	r.Failed += r.Loaded
	r.Loaded = 0
	r.MinEventTime = nil
	r.MaxEventTime = nil
}

// observeTime widens the event-time bounds to include t.
func (r *FileReport) observeTime(t time.Time) {
	if r.MinEventTime == nil || t.Before(*r.MinEventTime) {
		lo := t
		r.MinEventTime = &lo
	}
	if r.MaxEventTime == nil || t.After(*r.MaxEventTime) {
		hi := t
		r.MaxEventTime = &hi
	}
}

// Summary is the outcome of a whole load run.
type Summary struct {
	Dir            string
	Files          []*FileReport
	FilesProcessed int
	FilesFailed    int
	Loaded         int
	Failed         int
	ByType         []observability.TypeStats
}

// add folds a file report into the summary and the per-type tracker.
func (s *Summary) add(report *FileReport, stats *observability.LoadStats) {
	s.Files = append(s.Files, report)
	s.FilesProcessed++
	if report.Err != nil {
		s.FilesFailed++
	}
	s.Loaded += report.Loaded
	s.Failed += report.Failed

	for eventType, n := range report.LoadedByType {
		stats.AddLoaded(eventType, int64(n))
	}
	for eventType, n := range report.FailedByType {
		stats.AddFailed(eventType, int64(n))
	}
}

// Log prints the operator summary through the standard logger.
func (s *Summary) Log() {
	log.Printf("loader: %d file(s) processed, %d failed", s.FilesProcessed, s.FilesFailed)
	log.Printf("loader: %d record(s) loaded, %d failed", s.Loaded, s.Failed)
	for _, ts := range s.ByType {
		log.Printf("loader:   %-15s loaded=%d failed=%d", ts.EventType, ts.Loaded, ts.Failed)
	}
}
