package artifact

import (
	"context"
	"sync"
)

// InMemoryStore is a trivial in-process core.BlobStore implementation useful
// for tests, examples and single-process prototypes. It keeps all blobs in a
// map guarded by an RWMutex. Data is copied on save / retrieval to avoid
// accidental external mutation of internal buffers.
//
// URLs use the memory:// scheme and are stable per blob name, matching the
// overwrite-on-write idempotency contract of durable stores.
//
// This implementation is intentionally minimal; it does not enforce retention
// limits, size quotas, or eviction. For production, prefer a durable
// implementation (e.g. MinIO / S3) that can scale and survive process
// restarts.
type InMemoryStore struct {
	mu     sync.RWMutex
	bucket string
	blobs  map[string]blob
}

type blob struct {
	data        []byte
	contentType string
}

// NewInMemoryStore returns an empty in-memory blob store for the named
// bucket.
func NewInMemoryStore(bucket string) *InMemoryStore {
	return &InMemoryStore{bucket: bucket, blobs: make(map[string]blob)}
}

// Ensure is a no-op; the backing map always exists.
func (s *InMemoryStore) Ensure(context.Context) error { return nil }

// Upload stores (or overwrites) the blob bytes under name and returns its
// memory:// URL. The input slice is copied before storage.
func (s *InMemoryStore) Upload(_ context.Context, name string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blobs[name] = blob{data: cp, contentType: contentType}
	return "memory://" + s.bucket + "/" + name, nil
}

// Get returns a copy of the stored blob bytes and content type, or
// ErrNotFound.
func (s *InMemoryStore) Get(name string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[name]
	if !ok {
		return nil, "", ErrNotFound
	}
	cp := make([]byte, len(b.data))
	copy(cp, b.data)
	return cp, b.contentType, nil
}

// Len reports the number of stored blobs. Snapshot, test helper.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
