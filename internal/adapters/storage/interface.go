package storage

import (
	"context"
	"io"
	"time"
)

// ObjectMetadata represents metadata about a stored object
type ObjectMetadata struct {
	Bucket       string    `json:"bucket"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
	ETag         string    `json:"etag,omitempty"`
	VersionID    string    `json:"version_id,omitempty"` // Empty when the bucket is not versioned
}

// ObjectStorage provides read access to objects addressed by bucket and key.
// Implementations stream object bodies; callers own the returned reader and must close it.
type ObjectStorage interface {
	// Open returns a stream over the object's bytes
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// GetMetadata returns metadata for an object without reading its body
	GetMetadata(ctx context.Context, bucket, key string) (*ObjectMetadata, error)

	// Close cleans up any resources used by the storage implementation
	Close() error
}

// StorageConfig represents configuration for storage providers
type StorageConfig struct {
	Type     string `json:"type" yaml:"type"`           // "local", "s3" or "mock"
	BasePath string `json:"base_path" yaml:"base_path"` // For local storage
}
