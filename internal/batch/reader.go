package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/golang/snappy"
	"github.com/spaolacci/murmur3"

	apperrors "github.com/cartflow/cartflow/internal/errors"
)

// ReadFile reads a batch file and splits the top-level array into raw
// records without decoding them, so one bad record cannot take down the
// rest of the file. Compressed files are transparently decoded.
func ReadFile(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCategoryBatch, apperrors.CodeReadFailed,
			fmt.Sprintf("failed to read batch file %s", path), err)
	}

	if strings.HasSuffix(path, extSnappy) {
		data, err = snappy.Decode(nil, data)
		if err != nil {
			return nil, apperrors.NewMalformedBatchError(
				fmt.Sprintf("batch file %s is not valid snappy", path), err)
		}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperrors.NewMalformedBatchError(
			fmt.Sprintf("batch file %s is not a JSON array of events", path), err)
	}
	return records, nil
}

// ListFiles returns the batch files directly under dir, full paths in
// filename order. Timestamp-based names make that order chronological.
// An empty directory yields an empty slice, not an error.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCategoryIO, apperrors.CodeListFailed,
			fmt.Sprintf("failed to list batch directory %s", dir), err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, extJSON) || strings.HasSuffix(name, extSnappy) {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Fingerprint returns the 128-bit murmur3 hash of a file's raw contents in
// hex. Load history records it so an operator can tell whether two loads
// saw the same bytes.
func Fingerprint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint %s: %w", path, err)
	}
	h1, h2 := murmur3.Sum128(data)
	return fmt.Sprintf("%016x%016x", h1, h2), nil
}
