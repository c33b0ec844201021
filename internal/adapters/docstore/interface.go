// Package docstore abstracts the document database the billing pipeline writes to.
package docstore

import (
	"context"
)

// Document is a single schemaless record
type Document map[string]interface{}

// Dialer opens connections to a document store
type Dialer interface {
	// Dial connects to the store identified by uri. database is used when the
	// uri does not name one itself.
	Dial(ctx context.Context, uri, database string) (Store, error)
}

// Store is an open connection scoped to one database
type Store interface {
	// Collection returns the named collection, creating it if it does not exist
	Collection(ctx context.Context, name string) (Collection, error)

	// Close releases the connection
	Close(ctx context.Context) error
}

// Collection accepts document writes
type Collection interface {
	// InsertMany writes docs in order and returns once the store has acknowledged them
	InsertMany(ctx context.Context, docs []Document) error

	// Name returns the collection name
	Name() string
}

var (
	_ Dialer = (*MongoDialer)(nil)
	_ Dialer = (*MemoryServer)(nil)
	_ Store  = (*MongoStore)(nil)
)
