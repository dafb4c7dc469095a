package memory

import (
	"context"
	"sync"

	"kycflow/internal/audit"
	id "kycflow/pkg/domain"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, events ...audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns every event in insertion order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// Recorder is a synchronous audit.Emitter backed by the store. Services under
// test use it so emitted events can be asserted without running a Publisher.
type Recorder struct {
	*InMemoryStore
}

func NewRecorder() *Recorder {
	return &Recorder{InMemoryStore: NewInMemoryStore()}
}

func (r *Recorder) Emit(ctx context.Context, event audit.Event) {
	if event.Category == "" {
		event.Category = audit.CategoryOf(event.Action)
	}
	_ = r.Append(ctx, event)
}

// Actions lists the recorded actions in order.
func (r *Recorder) Actions() []audit.Action {
	events, _ := r.ListAll(context.Background())
	out := make([]audit.Action, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}
