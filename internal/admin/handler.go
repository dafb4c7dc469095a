package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	kycModels "kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/httputil"
	adminmw "kycflow/pkg/platform/middleware/admin"
	"kycflow/pkg/platform/middleware/auth"
	request "kycflow/pkg/platform/middleware/request"
)

// ReviewService defines the admin operations exposed over HTTP.
type ReviewService interface {
	ListApplications(ctx context.Context, status string) ([]*ApplicationSummary, error)
	Review(ctx context.Context, adminID id.UserID, appID id.ApplicationID, req *kycModels.ReviewRequest) (*ApplicationSummary, error)
}

// Handler serves the /admin endpoints.
type Handler struct {
	service      ReviewService
	logger       *slog.Logger
	jwtValidator auth.JWTValidator
	revocations  auth.TokenRevocationChecker
	role         string
}

func NewHandler(service ReviewService, logger *slog.Logger, jwtValidator auth.JWTValidator, revocations auth.TokenRevocationChecker, role string) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		jwtValidator: jwtValidator,
		revocations:  revocations,
		role:         role,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(30 * time.Second))
		r.Use(request.ContentTypeJSON)
		r.Use(auth.RequireAuth(h.jwtValidator, h.revocations, h.logger))
		r.Use(adminmw.RequireRole(h.role, h.logger))
		r.Get("/admin/kyc/applications", h.HandleListApplications)
		r.Post("/admin/kyc/applications/{id}/review", h.HandleReview)
	})
}

func (h *Handler) HandleListApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	apps, err := h.service.ListApplications(ctx, r.URL.Query().Get("status"))
	if err != nil {
		h.logFailure(ctx, "failed to list applications", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ApplicationsListResponse{Applications: apps, Total: len(apps)})
}

func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	appID, err := id.ParseApplicationID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req kycModels.ReviewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	adminID := auth.GetUserID(ctx)
	sum, err := h.service.Review(ctx, adminID, appID, &req)
	if err != nil {
		h.logFailure(ctx, "review failed", err,
			"request_id", requestID,
			"application_id", appID.String(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "application reviewed",
		"application_id", appID.String(),
		"status", sum.Status,
		"admin_id", adminID.String(),
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, sum)
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if de, ok := dErrors.As(err); ok && dErrors.ToHTTPStatus(de.Code) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, attrs...)
		return
	}
	h.logger.ErrorContext(ctx, msg, attrs...)
}
