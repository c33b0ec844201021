package docstore

import (
	"errors"
	"fmt"
)

var (
	ErrMissingURI        = errors.New("connection string is required")
	ErrInvalidCollection = errors.New("invalid collection name")
	ErrClosed            = errors.New("store connection closed")
)

// StoreError represents a document store operation error with additional context
type StoreError struct {
	Op         string // Operation that failed (e.g., "Dial", "InsertMany")
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("docstore %s operation failed for collection '%s': %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("docstore %s operation failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError
func NewStoreError(op, collection string, err error) *StoreError {
	return &StoreError{
		Op:         op,
		Collection: collection,
		Err:        err,
	}
}
