package benchmark

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/cartflow/cartflow/internal/storage"
)

// PrefixedStorage wraps an ObjectStorage and prepends a prefix to all
// object paths so concurrent benchmark runs stay out of each other's way.
type PrefixedStorage struct {
	inner  storage.ObjectStorage
	prefix string
}

func (s *PrefixedStorage) Upload(ctx context.Context, localPath, objectPath string) error {
	return s.inner.Upload(ctx, localPath, s.prefix+"/"+objectPath)
}

func (s *PrefixedStorage) Download(ctx context.Context, objectPath, localPath string) error {
	return s.inner.Download(ctx, s.prefix+"/"+objectPath, localPath)
}

func (s *PrefixedStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	return s.inner.Exists(ctx, s.prefix+"/"+objectPath)
}

func (s *PrefixedStorage) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.prefix + "/" + prefix
	objects, err := s.inner.ListObjects(ctx, fullPrefix)
	if err != nil {
		return nil, err
	}

	// Strip the run prefix so callers see the paths they asked for
	stripped := make([]string, len(objects))
	for i, obj := range objects {
		if len(obj) > len(s.prefix)+1 {
			stripped[i] = obj[len(s.prefix)+1:]
		} else {
			stripped[i] = obj
		}
	}
	return stripped, nil
}

// getBenchmarkStorage returns an archive backend for benchmarks.
// It respects CARTFLOW_ARCHIVE_TYPE=s3 from .env or the environment;
// everything else runs against a local temp directory.
func getBenchmarkStorage(b *testing.B, benchName string) (storage.ObjectStorage, func()) {
	// Try loading .env from the project root
	_ = godotenv.Load("../../.env")

	archiveType := os.Getenv("CARTFLOW_ARCHIVE_TYPE")

	if archiveType == "s3" {
		bucket := os.Getenv("CARTFLOW_S3_BUCKET")
		region := os.Getenv("CARTFLOW_S3_REGION")
		endpoint := os.Getenv("CARTFLOW_S3_ENDPOINT")

		if bucket == "" {
			b.Fatal("CARTFLOW_S3_BUCKET is required for the s3 benchmark")
		}

		cfg := storage.DefaultS3Config()
		if region != "" {
			cfg.Region = region
		}
		cfg.Endpoint = endpoint

		st, err := storage.NewS3Storage(context.Background(), bucket, cfg)
		if err != nil {
			b.Fatalf("Failed to initialize S3 storage: %v", err)
		}

		// Unique prefix for this run; cleanup stays manual so a failed run
		// can be inspected
		prefix := fmt.Sprintf("bench/%s/%d", benchName, time.Now().UnixNano())
		b.Logf("Running benchmark against S3 bucket %s, prefix %s", bucket, prefix)

		return &PrefixedStorage{inner: st, prefix: prefix}, func() {}
	}

	// Default to local
	dir, err := os.MkdirTemp("", "cartflow-bench-"+benchName+"-*")
	if err != nil {
		b.Fatal(err)
	}

	st, err := storage.NewLocalStorage(filepath.Join(dir, "archive"))
	if err != nil {
		b.Fatal(err)
	}

	return st, func() { os.RemoveAll(dir) }
}
