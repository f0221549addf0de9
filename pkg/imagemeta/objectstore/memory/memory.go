// Package memory provides an in-memory ObjectStore for tests and local runs.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// Store implements imagemeta.ObjectStore using in-memory byte slices
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// New creates a new in-memory object store
func New() *Store {
	return &Store{objects: make(map[string][]byte)}
}

// PutObject stores content under bucket/key. Test helper.
func (s *Store) PutObject(bucket, key string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = content
}

func (s *Store) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s/%s", bucket, key)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}
