package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"kycflow/internal/identity/handler/mocks"
	"kycflow/internal/identity/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/middleware/auth"
	"kycflow/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/identity-mocks.go -package=mocks Service
type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	handler *Handler
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

type rejectAll struct{}

func (rejectAll) ValidateToken(string) (*auth.JWTClaims, error) {
	return nil, errors.New("invalid token")
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.handler = New(s.service, logger, rejectAll{}, nil)
	s.router = chi.NewRouter()
	s.handler.Register(s.router)
}

func (s *HandlerSuite) TestRegister() {
	s.Run("created", func() {
		s.service.EXPECT().Register(gomock.Any(), &models.RegisterRequest{Email: "a@x.com", Mobile: "1", Password: "secret1"}).
			Return(&models.User{ID: id.NewUserID(), KycID: "KYC-AB12CD34"}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register",
			map[string]string{"email": "a@x.com", "mobile": "1", "password": "secret1"}))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "kycId", "KYC-AB12CD34")
		testutil.AssertJSONContains(s.T(), rr, "message", "User registered")
	})

	s.Run("conflict", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "User already exists"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register",
			map[string]string{"email": "a@x.com", "mobile": "1", "password": "secret1"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("validation failure is described", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeBadRequest, "password must be at least 6 characters"))

		body := testutil.MustMarshal(s.T(), models.RegisterRequest{Email: "a@x.com", Mobile: "1", Password: "123"})
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/auth/register", body))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
		testutil.AssertJSONHasKey(s.T(), rr, "error_description")
	})

	s.Run("malformed body never reaches the service", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/auth/register", "{"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *HandlerSuite) TestLogin() {
	s.Run("returns token role and redacted user", func() {
		user := &models.User{ID: id.NewUserID(), Email: "a@x.com", PasswordHash: "secret-hash", KycID: "KYC-AB12CD34", Role: models.RoleUser}
		s.service.EXPECT().Authenticate(gomock.Any(), &models.LoginRequest{KycID: "KYC-AB12CD34", Password: "secret1"}).
			Return(&models.LoginResult{Token: "tok", ExpiresAt: time.Now().Add(time.Hour), User: user}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login",
			map[string]string{"kycId": "KYC-AB12CD34", "password": "secret1"}))

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "token", "tok")
		testutil.AssertJSONContains(s.T(), rr, "role", "user")
		s.NotContains(rr.Body.String(), "secret-hash")
	})

	s.Run("invalid credentials", func() {
		s.service.EXPECT().Authenticate(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login",
			map[string]string{"email": "a@x.com", "password": "nope"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *HandlerSuite) TestAuthenticatedRoutesRequireToken() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/auth/me"))
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}

func (s *HandlerSuite) TestMe() {
	userID := id.NewUserID()
	s.service.EXPECT().Profile(gomock.Any(), userID).
		Return(&models.User{ID: userID, Email: "a@x.com", Role: models.RoleUser}, nil)

	req := testutil.WithPrincipal(testutil.NewRequest(s.T(), http.MethodGet, "/auth/me"), userID, "user", "KYC-AB12CD34")
	rr := testutil.DoRequest(http.HandlerFunc(s.handler.HandleMe), req)

	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "email", "a@x.com")
}

func (s *HandlerSuite) TestLogout() {
	userID := id.NewUserID()
	s.service.EXPECT().Logout(gomock.Any(), userID, "jti-1", gomock.Any()).Return(nil)

	req := testutil.NewRequest(s.T(), http.MethodPost, "/auth/logout")
	req = testutil.WithToken(testutil.WithPrincipal(req, userID, "user", "KYC-AB12CD34"), "jti-1")
	rr := testutil.DoRequest(http.HandlerFunc(s.handler.HandleLogout), req)

	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
}

func (s *HandlerSuite) TestThrottleGuardsOnlyUnauthenticatedRoutes() {
	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	router := chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)), rejectAll{}, nil, WithThrottle(blocked)).Register(router)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login",
		map[string]string{"email": "a@x.com", "password": "secret1"}))
	testutil.AssertStatus(s.T(), rr, http.StatusTooManyRequests)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/register",
		map[string]string{"email": "a@x.com", "mobile": "1", "password": "secret1"}))
	testutil.AssertStatus(s.T(), rr, http.StatusTooManyRequests)

	rr = testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/auth/me"))
	testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
}
