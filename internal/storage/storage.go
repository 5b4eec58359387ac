package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains blob storage for file content.
// Keys are flat names generated by the caller; thumbnail variants live next to
// their original under model.Variant.Key.

// ErrObjectNotFound is returned by Get when no blob exists under the key.
var ErrObjectNotFound = errors.New("object not found")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
}

// ObjectInfo contains basic information about a stored blob.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Storage is a blob store keyed by opaque names.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Put writes the content of r under key.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get opens the blob under key. It returns ErrObjectNotFound if there is none.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes the blob under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
