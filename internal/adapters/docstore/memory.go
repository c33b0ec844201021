package docstore

import (
	"context"
	"sync"
)

// MemoryServer is an in-memory document store for tests and local runs.
// Dialing it yields connections that share its data.
type MemoryServer struct {
	mu        sync.Mutex
	databases map[string]map[string][]Document
	dials     int
	opens     int
	closes    int
	creates   int

	// DialErr, when set, is returned by Dial
	DialErr error
	// InsertErr, when set, is returned by InsertMany once InsertErrAfter batches have succeeded
	InsertErr      error
	InsertErrAfter int
	inserts        int
}

// NewMemoryServer creates an empty MemoryServer
func NewMemoryServer() *MemoryServer {
	return &MemoryServer{
		databases: make(map[string]map[string][]Document),
	}
}

// Dial implements Dialer.Dial
func (s *MemoryServer) Dial(ctx context.Context, uri, database string) (Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dials++

	if uri == "" {
		return nil, NewStoreError("Dial", "", ErrMissingURI)
	}
	if s.DialErr != nil {
		return nil, NewStoreError("Dial", "", s.DialErr)
	}

	if _, ok := s.databases[database]; !ok {
		s.databases[database] = make(map[string][]Document)
	}
	s.opens++
	return &memoryStore{server: s, database: database}, nil
}

// Documents returns a copy of the documents stored in a collection, in insert order
func (s *MemoryServer) Documents(database, collection string) []Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Document(nil), s.databases[database][collection]...)
}

// CollectionNames returns the collections of a database
func (s *MemoryServer) CollectionNames(database string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for name := range s.databases[database] {
		names = append(names, name)
	}
	return names
}

// Stats reports dial, create and open connection counts
func (s *MemoryServer) Stats() (dials, creates, openConns int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials, s.creates, s.opens - s.closes
}

type memoryStore struct {
	server   *MemoryServer
	database string
	closed   bool
}

func (m *memoryStore) Collection(ctx context.Context, name string) (Collection, error) {
	if name == "" {
		return nil, NewStoreError("Collection", name, ErrInvalidCollection)
	}

	m.server.mu.Lock()
	defer m.server.mu.Unlock()

	if m.closed {
		return nil, NewStoreError("Collection", name, ErrClosed)
	}

	db := m.server.databases[m.database]
	if _, ok := db[name]; !ok {
		db[name] = nil
		m.server.creates++
	}
	return &memoryCollection{store: m, name: name}, nil
}

func (m *memoryStore) Close(ctx context.Context) error {
	m.server.mu.Lock()
	defer m.server.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.server.closes++
	return nil
}

type memoryCollection struct {
	store *memoryStore
	name  string
}

func (c *memoryCollection) Name() string {
	return c.name
}

func (c *memoryCollection) InsertMany(ctx context.Context, docs []Document) error {
	if err := ctx.Err(); err != nil {
		return NewStoreError("InsertMany", c.name, err)
	}

	s := c.store.server
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.store.closed {
		return NewStoreError("InsertMany", c.name, ErrClosed)
	}
	if s.InsertErr != nil && s.inserts >= s.InsertErrAfter {
		return NewStoreError("InsertMany", c.name, s.InsertErr)
	}
	s.inserts++

	db := s.databases[c.store.database]
	for _, doc := range docs {
		copied := make(Document, len(doc))
		for k, v := range doc {
			copied[k] = v
		}
		db[c.name] = append(db[c.name], copied)
	}
	return nil
}
