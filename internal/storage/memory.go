package storage

import (
	"context"
	"sync"

	"inkwell/internal/models"
)

type object struct {
	data        []byte
	contentType string
}

// MemoryStore keeps objects in process memory. It backs development and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	bucket    string
	publicURL string
	objects   map[string]object
}

// NewMemoryStore returns an empty store. Objects are served under publicURL,
// or under /media/{bucket} when publicURL is empty.
func NewMemoryStore(bucket, publicURL string) *MemoryStore {
	if publicURL == "" {
		publicURL = "/media/" + bucket
	}
	return &MemoryStore{
		bucket:    bucket,
		publicURL: publicURL,
		objects:   make(map[string]object),
	}
}

func (m *MemoryStore) Put(ctx context.Context, key string, upload models.Upload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data := make([]byte, len(upload.Data))
	copy(data, upload.Data)

	m.mu.Lock()
	m.objects[key] = object{data: data, contentType: upload.ContentType}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, "", ErrObjectNotFound
	}
	return obj.data, obj.contentType, nil
}

func (m *MemoryStore) PublicURL(key string) string {
	return joinURL(m.publicURL, key)
}

// Len reports the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
