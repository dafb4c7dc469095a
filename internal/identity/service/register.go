package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kycflow/internal/audit"
	"kycflow/internal/identity/models"
	kycModels "kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/sentinel"
	"kycflow/pkg/requestcontext"
)

// Register creates the user and their KYC application in one unit of work and
// returns the issued KYC id.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.createUser(ctx, req.Email, req.Mobile, req.Password, models.RoleUser)
}

// CreateAdmin provisions an administrator at startup. Admins get an
// application like everyone else so the one-to-one invariant holds.
func (s *Service) CreateAdmin(ctx context.Context, email, mobile, password string) (*models.User, error) {
	req := &models.RegisterRequest{Email: email, Mobile: mobile, Password: password}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.createUser(ctx, req.Email, req.Mobile, req.Password, models.RoleAdmin)
}

func (s *Service) createUser(ctx context.Context, email, mobile, password string, role models.Role) (*models.User, error) {
	start := time.Now()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	s.metrics.ObservePasswordHash(time.Since(start))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	user, err := models.NewUser(id.NewUserID(), email, mobile, string(hash), id.NewKycID(), role, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build user")
	}
	app, err := kycModels.NewApplication(id.NewApplicationID(), user.ID, now)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build application")
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		if err := s.apps.Create(ctx, app); err != nil {
			// Memory stores have no rollback.
			if delErr := s.users.Delete(ctx, user.ID); delErr != nil {
				s.logger.ErrorContext(ctx, "failed to remove user after application create failed",
					"error", delErr,
					"user_id", user.ID.String(),
				)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "User already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register user")
	}

	s.metrics.IncrementRegistered()
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionUserRegistered,
		UserID:        user.ID,
		ApplicationID: app.ID.String(),
		KycID:         user.KycID.String(),
		Details:       map[string]string{"role": role.String()},
	})
	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID.String(),
		"kyc_id", user.KycID.String(),
		"role", role.String(),
	)
	return user, nil
}
