package service

import (
	"context"
	"errors"

	"kycflow/internal/audit"
	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/sentinel"
	"kycflow/pkg/requestcontext"
)

// Dashboard is a pure read of the caller's application.
func (s *Service) Dashboard(ctx context.Context, userID id.UserID) (*models.DashboardResponse, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized")
	}
	app, err := s.apps.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &models.DashboardResponse{Message: "No KYC application found"}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load KYC application")
	}
	return &models.DashboardResponse{KYC: models.NewApplicationView(app, s.attemptsLeft(ctx, app.ID))}, nil
}

// SubmitPersonalDetails stores the step 1 form.
func (s *Service) SubmitPersonalDetails(ctx context.Context, userID id.UserID, details *models.PersonalDetails) (view *models.ApplicationView, err error) {
	ctx, end := s.startSpan(ctx, "SubmitPersonalDetails")
	defer func() { end(err) }()

	if details == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	details.Normalize()
	if err := details.Validate(); err != nil {
		return nil, err
	}
	app, err := s.applicationFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	updated, err := s.apps.Execute(ctx, app.ID,
		func(a *models.Application) error { return a.CanEditDetails() },
		func(a *models.Application) { a.ApplyPersonalDetails(*details, now) },
	)
	if err != nil {
		return nil, translate(err, "failed to save personal details")
	}
	s.noteTransition(app.Status, updated.Status)
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionPersonalDetailsSubmitted,
		UserID:        userID,
		ApplicationID: app.ID.String(),
	})
	return models.NewApplicationView(updated, s.attemptsLeft(ctx, updated.ID)), nil
}

// SelectDocument records the proof chosen at step 2.
func (s *Service) SelectDocument(ctx context.Context, userID id.UserID, req *models.DocumentSelectionRequest) (view *models.ApplicationView, err error) {
	ctx, end := s.startSpan(ctx, "SelectDocument")
	defer func() { end(err) }()

	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	app, err := s.applicationFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	selected := models.SelectedDocument{Category: req.Category, Kind: req.Kind, Number: req.Number, SelectedAt: now}
	updated, err := s.apps.Execute(ctx, app.ID,
		func(a *models.Application) error { return a.CanEditDetails() },
		func(a *models.Application) { a.ApplySelection(selected, now) },
	)
	if err != nil {
		return nil, translate(err, "failed to save document selection")
	}
	s.noteTransition(app.Status, updated.Status)
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionDocumentSelected,
		UserID:        userID,
		ApplicationID: app.ID.String(),
		Details:       map[string]string{"category": string(req.Category), "kind": string(req.Kind)},
	})
	return models.NewApplicationView(updated, s.attemptsLeft(ctx, updated.ID)), nil
}

// Submit hands the application over for review.
func (s *Service) Submit(ctx context.Context, userID id.UserID) (view *models.ApplicationView, err error) {
	ctx, end := s.startSpan(ctx, "Submit")
	defer func() { end(err) }()

	app, err := s.applicationFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	var updated *models.Application
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.apps.Execute(ctx, app.ID,
			func(a *models.Application) error {
				if err := a.CanSubmit(); err != nil {
					return err
				}
				n, err := s.docs.CountByApplication(ctx, a.ID)
				if err != nil {
					return err
				}
				if n == 0 {
					return dErrors.New(dErrors.CodeBadRequest, "Upload at least one document before submitting")
				}
				return nil
			},
			func(a *models.Application) { a.ApplySubmit(now) },
		)
		return err
	})
	if err != nil {
		return nil, translate(err, "failed to submit application")
	}
	s.noteTransition(app.Status, updated.Status)
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionApplicationSubmitted,
		UserID:        userID,
		ApplicationID: app.ID.String(),
	})
	s.logger.InfoContext(ctx, "application submitted for review", "application_id", app.ID.String())
	return models.NewApplicationView(updated, s.attemptsLeft(ctx, updated.ID)), nil
}

func (s *Service) noteTransition(from, to models.ApplicationStatus) {
	if from != to {
		s.metrics.IncrementTransition(string(to))
	}
}
