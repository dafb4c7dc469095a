package document

import (
	"context"
	"fmt"
	"sync"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/sentinel"
)

// InMemoryStore is an append-only document registry.
type InMemoryStore struct {
	mu    sync.RWMutex
	docs  map[id.DocumentID]*models.Document
	byApp map[id.ApplicationID][]id.DocumentID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		docs:  make(map[id.DocumentID]*models.Document),
		byApp: make(map[id.ApplicationID][]id.DocumentID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.ID]; ok {
		return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrConflict)
	}
	cp := *doc
	s.docs[doc.ID] = &cp
	s.byApp[doc.ApplicationID] = append(s.byApp[doc.ApplicationID], doc.ID)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

// ListByApplication returns documents in upload order.
func (s *InMemoryStore) ListByApplication(_ context.Context, appID id.ApplicationID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byApp[appID]
	out := make([]*models.Document, 0, len(ids))
	for _, docID := range ids {
		cp := *s.docs[docID]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) CountByApplication(_ context.Context, appID id.ApplicationID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byApp[appID]), nil
}
