package repositories

import (
	"context"
	"io"
)

// BlobStore is the object store holding audio recordings.
// Keys are write-once; a replaced recording gets a fresh key.
type BlobStore interface {
	// Put uploads data under key.
	Put(ctx context.Context, key string, data io.Reader, size int64, contentType string) error

	// URL returns a time-limited fetch URL for key. Only keys are persisted;
	// URLs are resolved each time a creation is read.
	URL(ctx context.Context, key string) (string, error)

	// Remove deletes the object. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
