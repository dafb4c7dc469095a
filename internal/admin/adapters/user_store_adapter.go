package adapters

import (
	"context"

	"kycflow/internal/admin/types"
	identityModels "kycflow/internal/identity/models"
	id "kycflow/pkg/domain"
)

// IdentityUserStore is the interface identity user stores implement.
type IdentityUserStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*identityModels.User, error)
}

// UserStoreAdapter adapts an identity user store to admin's ApplicantDirectory.
type UserStoreAdapter struct {
	store IdentityUserStore
}

// NewUserStoreAdapter creates a new adapter wrapping an identity user store.
func NewUserStoreAdapter(store IdentityUserStore) *UserStoreAdapter {
	return &UserStoreAdapter{store: store}
}

// FindApplicant returns the user mapped to the admin applicant type.
func (a *UserStoreAdapter) FindApplicant(ctx context.Context, userID id.UserID) (*types.Applicant, error) {
	u, err := a.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return mapUser(u), nil
}

func mapUser(u *identityModels.User) *types.Applicant {
	return &types.Applicant{
		UserID: u.ID,
		KycID:  u.KycID.String(),
		Email:  u.Email,
	}
}
