package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"kycflow/internal/identity/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/httputil"
	"kycflow/pkg/platform/middleware/auth"
	request "kycflow/pkg/platform/middleware/request"
	"kycflow/pkg/requestcontext"
)

// Service defines the identity operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Authenticate(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error)
	Profile(ctx context.Context, userID id.UserID) (*models.User, error)
	Logout(ctx context.Context, userID id.UserID, jti string, expiresAt time.Time) error
}

// Handler serves the /auth endpoints.
type Handler struct {
	service      Service
	logger       *slog.Logger
	jwtValidator auth.JWTValidator
	revocations  auth.TokenRevocationChecker
	throttle     func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithThrottle guards register and login, the two unauthenticated routes.
func WithThrottle(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.throttle = mw }
}

func New(service Service, logger *slog.Logger, jwtValidator auth.JWTValidator, revocations auth.TokenRevocationChecker, opts ...Option) *Handler {
	h := &Handler{
		service:      service,
		logger:       logger,
		jwtValidator: jwtValidator,
		revocations:  revocations,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register wires the auth routes. Shared middleware (recovery, request id,
// logging, metrics) is applied by the top-level router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(30 * time.Second))
		r.Use(request.ContentTypeJSON)

		r.Group(func(r chi.Router) {
			if h.throttle != nil {
				r.Use(h.throttle)
			}
			r.Post("/auth/register", h.HandleRegister)
			r.Post("/auth/login", h.HandleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(h.jwtValidator, h.revocations, h.logger))
			r.Get("/auth/me", h.HandleMe)
			r.Post("/auth/logout", h.HandleLogout)
		})
	})
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	var req models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.service.Register(ctx, &req)
	if err != nil {
		h.logFailure(ctx, "registration failed", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, models.RegisterResponse{
		Message: "User registered",
		KycID:   user.KycID.String(),
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	var req models.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.Authenticate(ctx, &req)
	if err != nil {
		h.logFailure(ctx, "login failed", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, models.LoginResponse{
		Token:     res.Token,
		Role:      res.User.Role,
		ExpiresAt: res.ExpiresAt,
		User:      res.User,
	})
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.service.Profile(ctx, auth.GetUserID(ctx))
	if err != nil {
		h.logFailure(ctx, "profile lookup failed", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.service.Logout(ctx, auth.GetUserID(ctx), requestcontext.TokenID(ctx), requestcontext.TokenExpiry(ctx))
	if err != nil {
		h.logFailure(ctx, "logout failed", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if de, ok := dErrors.As(err); ok && dErrors.ToHTTPStatus(de.Code) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, attrs...)
		return
	}
	h.logger.ErrorContext(ctx, msg, attrs...)
}
