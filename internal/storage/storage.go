// Package storage abstracts the object store that holds uploaded videos.
// The store is the sole source of truth: objects are addressed by key,
// listed by prefix, and read through time-limited signed URLs. Backends
// exist for S3, MinIO and an in-memory map (development/tests).
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes a stored object as returned by List.
type ObjectInfo struct {
	// Key is the full object key, e.g. "uploads/{uid}/{id}-{name}".
	Key string

	// CreatedAt is the object's creation timestamp from store metadata.
	CreatedAt time.Time
}

// ObjectStore is the contract consumed by the upload and listing handlers.
type ObjectStore interface {
	// Put streams r to the store under key, tagged with contentType.
	// It returns only after the store confirms the write is durable.
	// size is the exact byte count, or -1 if unknown.
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error

	// List returns every object whose key starts with prefix. A prefix
	// with no objects yields an empty slice, not an error.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// SignedURL mints a read-only URL for key that stays valid for ttl
	// from the moment of generation.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
