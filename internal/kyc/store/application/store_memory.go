package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/sentinel"
)

// InMemoryStore keeps applications behind one mutex; Execute holds it for the
// whole validate-then-mutate so concurrent steps on one application serialize.
type InMemoryStore struct {
	mu     sync.Mutex
	apps   map[id.ApplicationID]*models.Application
	byUser map[id.UserID]id.ApplicationID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		apps:   make(map[id.ApplicationID]*models.Application),
		byUser: make(map[id.UserID]id.ApplicationID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; ok {
		return fmt.Errorf("id: %w", sentinel.ErrConflict)
	}
	if _, ok := s.byUser[app.UserID]; ok {
		return fmt.Errorf("user_id: %w", sentinel.ErrConflict)
	}
	s.apps[app.ID] = app.Clone()
	s.byUser[app.UserID] = app.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return app.Clone(), nil
}

func (s *InMemoryStore) FindByUser(_ context.Context, userID id.UserID) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appID, ok := s.byUser[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.apps[appID].Clone(), nil
}

// List returns applications newest-updated first, filtered by status when set.
func (s *InMemoryStore) List(_ context.Context, status models.ApplicationStatus) ([]*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Application, 0, len(s.apps))
	for _, app := range s.apps {
		if status != "" && app.Status != status {
			continue
		}
		out = append(out, app.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Execute runs validate and then mutate on the stored application under the
// store lock. A validate error aborts without changes and is returned as is;
// a mutation that breaks the status lifecycle is discarded.
func (s *InMemoryStore) Execute(_ context.Context, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := stored.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	if err := models.CheckTransition(stored.Status, working.Status); err != nil {
		return nil, err
	}
	s.apps[appID] = working
	return working.Clone(), nil
}
