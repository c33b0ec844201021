package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// LocalObjectStorage implements ObjectStorage over a directory tree where each
// bucket is a sub-directory of basePath. It backs local runs of the handlers.
type LocalObjectStorage struct {
	basePath string
}

// NewLocalObjectStorage creates a new LocalObjectStorage instance
func NewLocalObjectStorage(basePath string) (*LocalObjectStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, NewStorageError("NewLocalObjectStorage", "", "", err)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, NewStorageError("NewLocalObjectStorage", "", "", err)
	}

	return &LocalObjectStorage{basePath: absPath}, nil
}

// Open implements ObjectStorage.Open
func (l *LocalObjectStorage) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if err := validateLocation(bucket, key); err != nil {
		return nil, NewStorageError("Open", bucket, key, err)
	}

	f, err := os.Open(l.getFilePath(bucket, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewStorageError("Open", bucket, key, ErrObjectNotFound)
		}
		return nil, NewStorageError("Open", bucket, key, err)
	}

	return f, nil
}

// GetMetadata implements ObjectStorage.GetMetadata
func (l *LocalObjectStorage) GetMetadata(ctx context.Context, bucket, key string) (*ObjectMetadata, error) {
	if err := validateLocation(bucket, key); err != nil {
		return nil, NewStorageError("GetMetadata", bucket, key, err)
	}

	stat, err := os.Stat(l.getFilePath(bucket, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewStorageError("GetMetadata", bucket, key, ErrObjectNotFound)
		}
		return nil, NewStorageError("GetMetadata", bucket, key, err)
	}
	if stat.IsDir() {
		return nil, NewStorageError("GetMetadata", bucket, key, ErrObjectNotFound)
	}

	return &ObjectMetadata{
		Bucket:       bucket,
		Key:          key,
		Size:         stat.Size(),
		ContentType:  contentTypeFor(key),
		LastModified: stat.ModTime(),
		ETag:         fmt.Sprintf("%d-%d", stat.Size(), stat.ModTime().Unix()),
	}, nil
}

// Close implements ObjectStorage.Close
func (l *LocalObjectStorage) Close() error {
	return nil
}

func (l *LocalObjectStorage) getFilePath(bucket, key string) string {
	return filepath.Join(l.basePath, bucket, filepath.FromSlash(key))
}

func validateLocation(bucket, key string) error {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return ErrInvalidBucket
	}
	if key == "" {
		return ErrInvalidKey
	}

	// Prevent directory traversal attacks
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}

	return nil
}

func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
