package storage

import (
	"errors"
	"fmt"
)

// Common storage error types
var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrInvalidKey         = errors.New("invalid storage key")
	ErrInvalidBucket      = errors.New("invalid bucket name")
	ErrStorageUnavailable = errors.New("storage service unavailable")
)

// StorageError represents a storage operation error with additional context
type StorageError struct {
	Op     string // Operation that failed (e.g., "Open", "GetMetadata")
	Bucket string
	Key    string
	Err    error
}

func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage %s operation failed for '%s/%s': %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	return fmt.Sprintf("storage %s operation failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a new StorageError
func NewStorageError(op, bucket, key string, err error) *StorageError {
	return &StorageError{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// IsNotFound returns true if the error indicates an object was not found
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}
