package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kycflow/internal/audit"
	"kycflow/internal/identity/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/sentinel"
	"kycflow/pkg/requestcontext"
)

const msgInvalidCredentials = "Invalid credentials"

// Authenticate verifies a password against the user found by KYC id or email
// and issues an access token. Unknown users and wrong passwords fail alike.
func (s *Service) Authenticate(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.FindByLogin(ctx, id.KycID(req.KycID), req.Email)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	hash := s.dummyHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	start := time.Now()
	cmpErr := bcrypt.CompareHashAndPassword(hash, []byte(req.Password))
	s.metrics.ObservePasswordHash(time.Since(start))

	if user == nil || cmpErr != nil {
		s.metrics.IncrementLogin("invalid_credentials")
		ev := audit.Event{Action: audit.ActionLoginFailed, KycID: req.KycID}
		if user != nil {
			ev.UserID = user.ID
		}
		s.auditor.Emit(ctx, ev)
		s.logger.WarnContext(ctx, "login failed",
			"known_user", user != nil,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.New(dErrors.CodeUnauthorized, msgInvalidCredentials)
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, user.Role.String(), user.KycID.String(), s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.metrics.IncrementLogin("success")
	s.auditor.Emit(ctx, audit.Event{
		Action: audit.ActionUserLoggedIn,
		UserID: user.ID,
		KycID:  user.KycID.String(),
	})
	return &models.LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// Profile returns the stored user without credentials.
func (s *Service) Profile(ctx context.Context, userID id.UserID) (*models.User, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, userID id.UserID, jti string, expiresAt time.Time) error {
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "user ID required")
	}
	if jti == "" {
		return dErrors.New(dErrors.CodeBadRequest, "token id required")
	}
	ttl := expiresAt.Sub(requestcontext.Now(ctx))
	if ttl <= 0 {
		return nil
	}
	if err := s.trl.RevokeToken(ctx, jti, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	s.metrics.IncrementLogout()
	s.auditor.Emit(ctx, audit.Event{Action: audit.ActionUserLoggedOut, UserID: userID})
	return nil
}

// IsTokenRevoked lets the auth middleware consult the revocation list.
func (s *Service) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return s.trl.IsRevoked(ctx, jti)
}
