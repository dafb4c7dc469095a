package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"kycflow/pkg/platform/sentinel"
)

// InMemoryStore holds blobs in a map. Tests use Handles to assert that no
// blob is left behind after a failed upload.
type InMemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{blobs: make(map[string][]byte)}
}

func (s *InMemoryStore) Put(_ context.Context, r io.Reader, meta Meta) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read blob: %w", err)
	}
	handle := NewHandle(time.Now(), meta.MediaType)
	s.mu.Lock()
	s.blobs[handle] = b
	s.mu.Unlock()
	return handle, nil
}

func (s *InMemoryStore) Open(_ context.Context, handle string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[handle]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", handle, sentinel.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *InMemoryStore) Delete(_ context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, handle)
	return nil
}

func (s *InMemoryStore) Handles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.blobs))
	for h := range s.blobs {
		out = append(out, h)
	}
	return out
}
