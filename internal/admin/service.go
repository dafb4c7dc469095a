package admin

import (
	"context"
	"log/slog"

	"kycflow/internal/admin/types"
	kycModels "kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
)

// Reviewer is the part of the onboarding workflow admins drive.
type Reviewer interface {
	ListApplications(ctx context.Context, status string) ([]*kycModels.Application, error)
	Review(ctx context.Context, adminID id.UserID, appID id.ApplicationID, req *kycModels.ReviewRequest) (*kycModels.Application, error)
}

// ApplicantDirectory resolves who owns an application.
type ApplicantDirectory interface {
	FindApplicant(ctx context.Context, userID id.UserID) (*types.Applicant, error)
}

// Service joins workflow state with applicant identity for the review queue.
type Service struct {
	reviewer   Reviewer
	applicants ApplicantDirectory
	logger     *slog.Logger
}

func NewService(reviewer Reviewer, applicants ApplicantDirectory, logger *slog.Logger) *Service {
	return &Service{reviewer: reviewer, applicants: applicants, logger: logger}
}

func (s *Service) ListApplications(ctx context.Context, status string) ([]*ApplicationSummary, error) {
	apps, err := s.reviewer.ListApplications(ctx, status)
	if err != nil {
		return nil, err
	}
	out := make([]*ApplicationSummary, 0, len(apps))
	for _, app := range apps {
		out = append(out, s.summarize(ctx, app))
	}
	return out, nil
}

func (s *Service) Review(ctx context.Context, adminID id.UserID, appID id.ApplicationID, req *kycModels.ReviewRequest) (*ApplicationSummary, error) {
	app, err := s.reviewer.Review(ctx, adminID, appID, req)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, app), nil
}

// summarize never fails: a missing applicant only leaves identity fields blank.
func (s *Service) summarize(ctx context.Context, app *kycModels.Application) *ApplicationSummary {
	sum := &ApplicationSummary{
		ID:            app.ID.String(),
		UserID:        app.UserID.String(),
		Status:        string(app.Status),
		CurrentStep:   app.CurrentStep.Int(),
		FailureReason: app.FailureReason,
		ReviewedAt:    app.ReviewedAt,
		UpdatedAt:     app.UpdatedAt,
	}
	if app.ReviewedBy != nil {
		sum.ReviewedBy = app.ReviewedBy.String()
	}
	applicant, err := s.applicants.FindApplicant(ctx, app.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "applicant lookup failed",
			"error", err,
			"application_id", app.ID.String(),
		)
		return sum
	}
	sum.KycID = applicant.KycID
	sum.Email = applicant.Email
	return sum
}
