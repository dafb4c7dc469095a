package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"kycflow/internal/audit"
	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/sentinel"
	"kycflow/pkg/requestcontext"
)

// ListApplications returns applications for admins, optionally by status.
func (s *Service) ListApplications(ctx context.Context, status string) ([]*models.Application, error) {
	var filter models.ApplicationStatus
	if status != "" {
		st, ok := models.ParseStatus(status)
		if !ok {
			return nil, dErrors.New(dErrors.CodeBadRequest, "unknown status filter")
		}
		filter = st
	}
	apps, err := s.apps.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

// Review approves or rejects an application waiting for review.
func (s *Service) Review(ctx context.Context, adminID id.UserID, appID id.ApplicationID, req *models.ReviewRequest) (app *models.Application, err error) {
	ctx, end := s.startSpan(ctx, "Review", attribute.String("application.id", appID.String()))
	defer func() { end(err) }()

	if adminID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized")
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	approve := req.Decision == models.DecisionApprove
	updated, err := s.apps.Execute(ctx, appID,
		func(a *models.Application) error { return a.CanReview() },
		func(a *models.Application) { a.ApplyReview(adminID, approve, req.Reason, now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "KYC application not found")
		}
		return nil, translate(err, "failed to review application")
	}

	s.metrics.IncrementTransition(string(updated.Status))
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionApplicationReviewed,
		UserID:        updated.UserID,
		ApplicationID: updated.ID.String(),
		ActorID:       adminID.String(),
		Reason:        req.Reason,
		Details:       map[string]string{"decision": string(req.Decision)},
	})
	s.logger.InfoContext(ctx, "application reviewed",
		"application_id", updated.ID.String(),
		"status", string(updated.Status),
		"reviewer_id", adminID.String(),
	)
	return updated, nil
}
