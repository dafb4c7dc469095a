package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"kycflow/internal/audit"
	auditmemory "kycflow/internal/audit/memory"
	"kycflow/internal/identity/metrics"
	"kycflow/internal/identity/models"
	"kycflow/internal/identity/store/revocation"
	"kycflow/internal/identity/store/user"
	jwttoken "kycflow/internal/jwt_token"
	kycModels "kycflow/internal/kyc/models"
	"kycflow/internal/kyc/store/application"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/tx"
)

type ServiceSuite struct {
	suite.Suite
	users   *user.InMemoryUserStore
	apps    *application.InMemoryStore
	trl     *revocation.InMemoryTRL
	jwt     *jwttoken.JWTService
	auditor *auditmemory.Recorder
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.users = user.New()
	s.apps = application.NewInMemory()
	s.trl = revocation.NewInMemoryTRL()
	s.jwt = jwttoken.NewJWTService("test-signing-key-with-enough-bytes", "kycflow", "kycflow-api")
	s.auditor = auditmemory.NewRecorder()
	s.service = New(s.users, s.apps, s.jwt, s.trl,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
		WithAuditor(s.auditor),
		WithTx(tx.NewMemoryRunner()),
		WithBcryptCost(bcrypt.MinCost),
	)
}

func (s *ServiceSuite) register(email, mobile string) *models.User {
	u, err := s.service.Register(context.Background(), &models.RegisterRequest{Email: email, Mobile: mobile, Password: "secret1"})
	s.Require().NoError(err)
	return u
}

func (s *ServiceSuite) TestRegister() {
	ctx := context.Background()

	s.Run("creates user and not-started application together", func() {
		u := s.register("Jane@Example.com", "9999999999")
		_, err := id.ParseKycID(u.KycID.String())
		s.NoError(err)
		s.Equal("jane@example.com", u.Email)
		s.NotEqual("secret1", u.PasswordHash)

		app, err := s.apps.FindByUser(ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(kycModels.StatusNotStarted, app.Status)
		s.Equal(kycModels.StepPersonalDetails, app.CurrentStep)
		s.Contains(s.auditor.Actions(), audit.ActionUserRegistered)
	})

	s.Run("email conflict is case-insensitive", func() {
		_, err := s.service.Register(ctx, &models.RegisterRequest{Email: "JANE@example.com", Mobile: "1111111111", Password: "secret1"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("mobile conflict", func() {
		_, err := s.service.Register(ctx, &models.RegisterRequest{Email: "other@example.com", Mobile: " 9999999999 ", Password: "secret1"})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("bad input", func() {
		_, err := s.service.Register(ctx, &models.RegisterRequest{Email: "x@example.com", Mobile: "1", Password: "abc"})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		_, err = s.service.Register(ctx, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

type failingApps struct{}

func (failingApps) Create(context.Context, *kycModels.Application) error {
	return errors.New("disk full")
}

func (s *ServiceSuite) TestRegisterRemovesUserWhenApplicationFails() {
	svc := New(s.users, failingApps{}, s.jwt, s.trl, WithBcryptCost(bcrypt.MinCost), WithTx(tx.NewMemoryRunner()))

	_, err := svc.Register(context.Background(), &models.RegisterRequest{Email: "a@x.com", Mobile: "1", Password: "secret1"})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = s.users.FindByLogin(context.Background(), "", "a@x.com")
	s.Error(err)
}

func (s *ServiceSuite) TestAuthenticate() {
	ctx := context.Background()
	u := s.register("jane@example.com", "9999999999")

	s.Run("by email", func() {
		res, err := s.service.Authenticate(ctx, &models.LoginRequest{Email: "JANE@example.com", Password: "secret1"})
		s.Require().NoError(err)
		s.Equal(u.ID, res.User.ID)

		claims, err := s.jwt.ValidateToken(res.Token)
		s.Require().NoError(err)
		s.Equal(u.ID.String(), claims.UserID)
		s.Equal("user", claims.Role)
		s.Equal(u.KycID.String(), claims.KycID)
		s.NotEmpty(claims.ID)
		s.True(res.ExpiresAt.Equal(claims.ExpiresAt.Time), "expiry reported to the client is the signed one")
	})

	s.Run("by kyc id in any case", func() {
		res, err := s.service.Authenticate(ctx, &models.LoginRequest{KycID: " " + strings.ToLower(u.KycID.String()), Password: "secret1"})
		s.Require().NoError(err)
		s.Equal(u.ID, res.User.ID)
	})

	s.Run("wrong password and unknown user look the same", func() {
		_, errWrong := s.service.Authenticate(ctx, &models.LoginRequest{Email: "jane@example.com", Password: "wrong-pass"})
		_, errUnknown := s.service.Authenticate(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
		s.ErrorIs(errWrong, dErrors.New(dErrors.CodeUnauthorized, msgInvalidCredentials))
		s.ErrorIs(errUnknown, dErrors.New(dErrors.CodeUnauthorized, msgInvalidCredentials))
	})

	s.Run("missing identifiers", func() {
		_, err := s.service.Authenticate(ctx, &models.LoginRequest{Password: "secret1"})
		s.ErrorIs(err, dErrors.New(dErrors.CodeBadRequest, "Provide password and either kycId or email"))
	})

	s.Contains(s.auditor.Actions(), audit.ActionLoginFailed)
}

func (s *ServiceSuite) TestProfile() {
	u := s.register("jane@example.com", "9999999999")

	got, err := s.service.Profile(context.Background(), u.ID)
	s.Require().NoError(err)
	s.Equal(u.Email, got.Email)

	_, err = s.service.Profile(context.Background(), id.NewUserID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestLogoutRevokesToken() {
	ctx := context.Background()
	u := s.register("jane@example.com", "9999999999")

	s.Require().NoError(s.service.Logout(ctx, u.ID, "jti-1", time.Now().Add(time.Hour)))
	revoked, err := s.service.IsTokenRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)

	s.Run("already expired tokens need no entry", func() {
		s.NoError(s.service.Logout(ctx, u.ID, "jti-2", time.Now().Add(-time.Minute)))
		revoked, _ := s.service.IsTokenRevoked(ctx, "jti-2")
		s.False(revoked)
	})

	s.Run("missing jti", func() {
		s.True(dErrors.HasCode(s.service.Logout(ctx, u.ID, "", time.Now().Add(time.Hour)), dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestCreateAdmin() {
	admin, err := s.service.CreateAdmin(context.Background(), "admin@example.com", "0000000000", "admin-pass")
	s.Require().NoError(err)
	s.True(admin.IsAdmin())
}
