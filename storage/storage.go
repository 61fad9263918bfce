package storage

import (
	"context"
	"errors"
	"io"

	"beatstore/config"
)

// ErrNotFound reports that no object exists under the requested path.
var ErrNotFound = errors.New("object not found")

// Store abstracts where uploaded files live. The local driver writes under
// the configured upload directory; the MinIO driver puts objects in a bucket.
type Store interface {
	// Save writes an object under objectPath, overwriting any existing one.
	Save(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) error
	// Open reads the object under objectPath. Returns ErrNotFound when absent.
	Open(ctx context.Context, objectPath string) (io.ReadCloser, error)
}

// New selects a storage driver from the configuration.
func New(cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case "minio":
		return NewMinioStore(cfg)
	default:
		return NewLocalStore(cfg.UploadDir)
	}
}
