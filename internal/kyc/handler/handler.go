package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/httputil"
	"kycflow/pkg/platform/middleware/auth"
	request "kycflow/pkg/platform/middleware/request"
)

// Service defines the onboarding operations exposed to applicants.
type Service interface {
	Dashboard(ctx context.Context, userID id.UserID) (*models.DashboardResponse, error)
	SubmitPersonalDetails(ctx context.Context, userID id.UserID, details *models.PersonalDetails) (*models.ApplicationView, error)
	SelectDocument(ctx context.Context, userID id.UserID, req *models.DocumentSelectionRequest) (*models.ApplicationView, error)
	UploadDocument(ctx context.Context, userID id.UserID, up models.Upload) (*models.UploadResult, error)
	ListDocuments(ctx context.Context, userID id.UserID) ([]*models.Document, error)
	OpenDocument(ctx context.Context, userID id.UserID, isAdmin bool, docID id.DocumentID) (*models.Document, io.ReadCloser, error)
	Submit(ctx context.Context, userID id.UserID) (*models.ApplicationView, error)
	PhotoMatch(ctx context.Context, userID id.UserID) (*models.PhotoMatchResult, error)
}

// Handler serves the /kyc endpoints.
type Handler struct {
	service        Service
	blobs          BlobWriter
	logger         *slog.Logger
	jwtValidator   auth.JWTValidator
	revocations    auth.TokenRevocationChecker
	maxUploadBytes int64
	adminRole      string
}

type Option func(*Handler)

// WithMaxUploadBytes caps the size of an uploaded document.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithAdminRole names the role allowed to read any applicant's documents.
func WithAdminRole(role string) Option {
	return func(h *Handler) { h.adminRole = role }
}

func New(service Service, blobs BlobWriter, logger *slog.Logger, jwtValidator auth.JWTValidator, revocations auth.TokenRevocationChecker, opts ...Option) *Handler {
	h := &Handler{
		service:        service,
		blobs:          blobs,
		logger:         logger,
		jwtValidator:   jwtValidator,
		revocations:    revocations,
		maxUploadBytes: DefaultMaxUploadBytes,
		adminRole:      "admin",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register wires the applicant routes. Uploads sit outside the JSON
// content-type guard because they are multipart.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(30 * time.Second))
		r.Use(auth.RequireAuth(h.jwtValidator, h.revocations, h.logger))

		r.Group(func(r chi.Router) {
			r.Use(request.ContentTypeJSON)
			r.Get("/kyc/dashboard", h.HandleDashboard)
			r.Put("/kyc/personal-details", h.HandlePersonalDetails)
			r.Put("/kyc/document-selection", h.HandleDocumentSelection)
			r.Get("/kyc/documents", h.HandleListDocuments)
			r.Get("/kyc/documents/{id}/content", h.HandleDocumentContent)
			r.Post("/kyc/complete", h.HandleComplete)
			r.Post("/kyc/photo-match", h.HandlePhotoMatch)
		})

		r.Post("/kyc/upload", h.HandleUpload)
	})
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.service.Dashboard(ctx, auth.GetUserID(ctx))
	if err != nil {
		h.logFailure(ctx, "dashboard lookup failed", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandlePersonalDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.PersonalDetails
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.service.SubmitPersonalDetails(ctx, auth.GetUserID(ctx), &req)
	if err != nil {
		h.logFailure(ctx, "personal details rejected", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleDocumentSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.DocumentSelectionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.service.SelectDocument(ctx, auth.GetUserID(ctx), &req)
	if err != nil {
		h.logFailure(ctx, "document selection rejected", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docs, err := h.service.ListDocuments(ctx, auth.GetUserID(ctx))
	if err != nil {
		h.logFailure(ctx, "document list failed", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	httputil.WriteJSON(w, http.StatusOK, models.DocumentListResponse{Documents: docs})
}

func (h *Handler) HandleDocumentContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	docID, err := id.ParseDocumentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	isAdmin := auth.GetRole(ctx) == h.adminRole
	doc, rc, err := h.service.OpenDocument(ctx, auth.GetUserID(ctx), isAdmin, docID)
	if err != nil {
		h.logFailure(ctx, "document read failed", err, "request_id", requestID, "document_id", docID.String())
		httputil.WriteError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", doc.MediaType)
	if doc.SizeBytes > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.SizeBytes, 10))
	}
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(ctx, "document stream interrupted",
			"error", err,
			"document_id", docID.String(),
			"request_id", requestID,
		)
	}
}

func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view, err := h.service.Submit(ctx, auth.GetUserID(ctx))
	if err != nil {
		h.logFailure(ctx, "application submit failed", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

// HandlePhotoMatch answers 200 on a match and 400 with the score on a mismatch.
func (h *Handler) HandlePhotoMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.service.PhotoMatch(ctx, auth.GetUserID(ctx))
	if err != nil {
		h.logFailure(ctx, "photo match failed", err, "request_id", request.GetRequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if !res.Passed {
		status = http.StatusBadRequest
	}
	httputil.WriteJSON(w, status, res)
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
