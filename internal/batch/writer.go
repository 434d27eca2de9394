// Package batch reads and writes event batch files in the spool directory.
// A batch file is a JSON array of flat event objects, named
// events_<yyyymmdd_hhmmss>_<suffix>.json, optionally snappy-compressed
// with a .json.sz extension.
package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"

	apperrors "github.com/cartflow/cartflow/internal/errors"
	"github.com/cartflow/cartflow/pkg/types"
)

const (
	filePrefix = "events"
	extJSON    = ".json"
	extSnappy  = ".json.sz"

	timestampLayout = "20060102_150405"
)

// Writer persists event batches to the spool directory.
type Writer struct {
	dir      string
	compress bool
	now      func() time.Time
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompression makes the writer emit snappy-compressed batch files.
func WithCompression() WriterOption {
	return func(w *Writer) {
		w.compress = true
	}
}

// WithClock sets the clock used for batch file names.
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) {
		w.now = now
	}
}

// NewWriter creates a Writer targeting the given spool directory.
func NewWriter(dir string, opts ...WriterOption) *Writer {
	w := &Writer{
		dir: dir,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write encodes the batch as an indented JSON array and writes it to a
// timestamp-named file, returning the file's path. The short random suffix
// keeps two batches written in the same second from colliding. An empty
// batch still produces a file holding an empty array.
func (w *Writer) Write(events []types.Event) (string, error) {
	if events == nil {
		events = []types.Event{}
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCategoryIO, apperrors.CodeWriteFileFailed,
			fmt.Sprintf("failed to create spool directory %s", w.dir), err)
	}

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return "", apperrors.NewInternalError("failed to encode batch", err)
	}

	ext := extJSON
	if w.compress {
		data = snappy.Encode(nil, data)
		ext = extSnappy
	}

	name := fmt.Sprintf("%s_%s_%s%s", filePrefix, w.now().UTC().Format(timestampLayout), uuid.New().String()[:8], ext)
	path := filepath.Join(w.dir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCategoryIO, apperrors.CodeWriteFileFailed,
			fmt.Sprintf("failed to write batch file %s", path), err)
	}
	return path, nil
}
