package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MockObjectStorage is an in-memory implementation of ObjectStorage for testing
type MockObjectStorage struct {
	mu      sync.RWMutex
	objects map[string]*mockObject
	opened  []*TrackedReader
	calls   int
}

type mockObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
	versionID    string
}

// TrackedReader is the stream handed out by MockObjectStorage.Open.
// It records whether the consumer closed it.
type TrackedReader struct {
	mu     sync.Mutex
	r      io.Reader
	closed bool
}

// Read implements io.Reader
func (t *TrackedReader) Read(p []byte) (int, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return 0, fmt.Errorf("read from closed object stream")
	}
	return t.r.Read(p)
}

// Close implements io.Closer
func (t *TrackedReader) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Closed reports whether Close has been called
func (t *TrackedReader) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// NewMockObjectStorage creates a new MockObjectStorage instance
func NewMockObjectStorage() *MockObjectStorage {
	return &MockObjectStorage{
		objects: make(map[string]*mockObject),
	}
}

// Put seeds an object. An empty versionID models an unversioned bucket.
func (m *MockObjectStorage) Put(bucket, key string, data []byte, versionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[objectID(bucket, key)] = &mockObject{
		data:         append([]byte(nil), data...),
		contentType:  contentTypeFor(key),
		lastModified: time.Now(),
		versionID:    versionID,
	}
}

// Open implements ObjectStorage.Open
func (m *MockObjectStorage) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if err := validateLocation(bucket, key); err != nil {
		return nil, NewStorageError("Open", bucket, key, err)
	}

	obj, exists := m.objects[objectID(bucket, key)]
	if !exists {
		return nil, NewStorageError("Open", bucket, key, ErrObjectNotFound)
	}

	r := &TrackedReader{r: bytes.NewReader(obj.data)}
	m.opened = append(m.opened, r)
	return r, nil
}

// GetMetadata implements ObjectStorage.GetMetadata
func (m *MockObjectStorage) GetMetadata(ctx context.Context, bucket, key string) (*ObjectMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if err := validateLocation(bucket, key); err != nil {
		return nil, NewStorageError("GetMetadata", bucket, key, err)
	}

	obj, exists := m.objects[objectID(bucket, key)]
	if !exists {
		return nil, NewStorageError("GetMetadata", bucket, key, ErrObjectNotFound)
	}

	return &ObjectMetadata{
		Bucket:       bucket,
		Key:          key,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		LastModified: obj.lastModified,
		ETag:         fmt.Sprintf("%d-%d", len(obj.data), obj.lastModified.Unix()),
		VersionID:    obj.versionID,
	}, nil
}

// Close implements ObjectStorage.Close
func (m *MockObjectStorage) Close() error {
	return nil
}

// Calls returns the number of Open and GetMetadata calls made
func (m *MockObjectStorage) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls
}

// OpenedStreams returns every stream handed out by Open, in order
func (m *MockObjectStorage) OpenedStreams() []*TrackedReader {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*TrackedReader(nil), m.opened...)
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}
