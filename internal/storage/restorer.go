package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Restorer pulls archived batch files back into a spool directory so a
// previous run's events can be loaded again.
type Restorer struct {
	storage     ObjectStorage
	concurrency int
	destDir     string
}

// RestoreResult contains the outcome of a restore operation.
type RestoreResult struct {
	LocalPaths map[string]string
	Errors     map[string]error
	Skipped    int
	Downloads  int
}

// NewRestorer creates a restorer that downloads into destDir.
// storage: the ObjectStorage implementation to download from
// concurrency: maximum number of parallel downloads
func NewRestorer(storage ObjectStorage, concurrency int, destDir string) *Restorer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Restorer{
		storage:     storage,
		concurrency: concurrency,
		destDir:     destDir,
	}
}

// Restore downloads every object under the given prefix into the
// destination directory. Objects whose file name already exists locally
// are skipped. Per-object failures are collected in the result rather
// than aborting the remaining downloads.
func (r *Restorer) Restore(ctx context.Context, prefix string) (*RestoreResult, error) {
	objects, err := r.storage.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{
		LocalPaths: make(map[string]string),
		Errors:     make(map[string]error),
	}
	if len(objects) == 0 {
		return result, nil
	}

	if err := os.MkdirAll(r.destDir, 0755); err != nil {
		return nil, err
	}

	sem := semaphore.NewWeighted(int64(r.concurrency))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, objectPath := range objects {
		localPath := r.localPath(objectPath)

		// Already restored or still sitting in the spool
		if _, err := os.Stat(localPath); err == nil {
			result.LocalPaths[objectPath] = localPath
			result.Skipped++
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			result.Errors[objectPath] = err
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(objectPath, localPath string) {
			defer sem.Release(1)
			defer wg.Done()

			if err := r.storage.Download(ctx, objectPath, localPath); err != nil {
				mu.Lock()
				result.Errors[objectPath] = err
				mu.Unlock()
				return
			}

			mu.Lock()
			result.LocalPaths[objectPath] = localPath
			result.Downloads++
			mu.Unlock()
		}(objectPath, localPath)
	}

	wg.Wait()

	return result, nil
}

// localPath returns the destination file for an object. Only the base
// name is kept so archive prefixes cannot escape the spool directory.
func (r *Restorer) localPath(objectPath string) string {
	return filepath.Join(r.destDir, filepath.Base(filepath.FromSlash(objectPath)))
}
