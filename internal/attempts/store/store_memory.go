package store

import (
	"context"
	"sync"

	id "kycflow/pkg/domain"
)

type key struct {
	appID id.ApplicationID
	step  int
}

// InMemoryStore keeps counters in a map guarded by a mutex.
type InMemoryStore struct {
	mu     sync.Mutex
	counts map[key]int
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{counts: make(map[key]int)}
}

func (s *InMemoryStore) Increment(_ context.Context, appID id.ApplicationID, step int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{appID, step}
	s.counts[k]++
	return s.counts[k], nil
}

func (s *InMemoryStore) Count(_ context.Context, appID id.ApplicationID, step int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key{appID, step}], nil
}

func (s *InMemoryStore) IncrementBelow(_ context.Context, appID id.ApplicationID, step, max int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{appID, step}
	if s.counts[k] >= max {
		return s.counts[k], false, nil
	}
	s.counts[k]++
	return s.counts[k], true, nil
}
