package user

import (
	"context"
	"fmt"
	"sync"

	"kycflow/internal/identity/models"
	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/sentinel"
)

// InMemoryUserStore keeps users in maps guarded by one mutex so uniqueness
// checks and inserts are atomic.
type InMemoryUserStore struct {
	mu       sync.RWMutex
	users    map[id.UserID]*models.User
	byEmail  map[string]id.UserID
	byMobile map[string]id.UserID
	byKycID  map[id.KycID]id.UserID
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:    make(map[id.UserID]*models.User),
		byEmail:  make(map[string]id.UserID),
		byMobile: make(map[string]id.UserID),
		byKycID:  make(map[id.KycID]id.UserID),
	}
}

// Create inserts u, failing with sentinel.ErrConflict when the email, mobile
// or KYC id is already taken.
func (s *InMemoryUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := models.NormalizeEmail(u.Email)
	if _, ok := s.byEmail[email]; ok {
		return fmt.Errorf("email: %w", sentinel.ErrConflict)
	}
	if _, ok := s.byMobile[u.Mobile]; ok {
		return fmt.Errorf("mobile: %w", sentinel.ErrConflict)
	}
	if _, ok := s.byKycID[u.KycID]; ok {
		return fmt.Errorf("kyc_id: %w", sentinel.ErrConflict)
	}
	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("id: %w", sentinel.ErrConflict)
	}

	cp := *u
	cp.Email = email
	s.users[u.ID] = &cp
	s.byEmail[email] = u.ID
	s.byMobile[u.Mobile] = u.ID
	s.byKycID[u.KycID] = u.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindByLogin matches either identifier; empty identifiers are ignored. A KYC
// id match wins when both identify different users.
func (s *InMemoryUserStore) FindByLogin(_ context.Context, kycID id.KycID, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if kycID != "" {
		if uid, ok := s.byKycID[kycID]; ok {
			cp := *s.users[uid]
			return &cp, nil
		}
	}
	if email != "" {
		if uid, ok := s.byEmail[models.NormalizeEmail(email)]; ok {
			cp := *s.users[uid]
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Delete removes a user. Registration rolls back through it when the paired
// application cannot be created.
func (s *InMemoryUserStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, u.Email)
	delete(s.byMobile, u.Mobile)
	delete(s.byKycID, u.KycID)
	delete(s.users, userID)
	return nil
}
