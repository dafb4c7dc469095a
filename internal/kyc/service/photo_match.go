package service

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"kycflow/internal/audit"
	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/requestcontext"
)

const msgPhotoMatchExhausted = "Max attempts reached. KYC Rejected"

// PhotoMatch scores the applicant's selfie against their documents. A score
// at or above the threshold approves the application and anything lower
// rejects it; both outcomes are returned as a result, not an error.
//
// The attempt is committed before the scorer runs, so a scoring failure
// still spends it whatever the backing store.
func (s *Service) PhotoMatch(ctx context.Context, userID id.UserID) (result *models.PhotoMatchResult, err error) {
	ctx, end := s.startSpan(ctx, "PhotoMatch", attribute.String("user.id", userID.String()))
	defer func() { end(err) }()

	app, err := s.applicationFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	exhausted, err := s.consumePhotoMatchAttempt(ctx, app.ID, now)
	if err != nil {
		return nil, s.photoMatchFailed(ctx, app.ID, err)
	}

	if exhausted {
		s.metrics.IncrementPhotoMatch("exhausted")
		s.metrics.IncrementTransition(string(models.StatusRejected))
		s.auditor.Emit(ctx, audit.Event{
			Action:        audit.ActionAttemptsExhausted,
			UserID:        userID,
			ApplicationID: app.ID.String(),
			Reason:        models.ReasonMaxAttempts,
			Details:       map[string]string{"step": "photo_match"},
		})
		return nil, dErrors.New(dErrors.CodeAttemptsExhausted, msgPhotoMatchExhausted)
	}

	score, err := s.scorer.Score(ctx, app.ID)
	if err != nil {
		return nil, s.photoMatchFailed(ctx, app.ID, dErrors.Wrap(err, dErrors.CodeInternal, "Photo match failed"))
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.apps.Execute(ctx, app.ID,
			func(a *models.Application) error { return a.CanPhotoMatch() },
			func(a *models.Application) {
				if score < s.photoThreshold {
					a.ApplyRejection(models.PhotoMismatchReason(s.photoThreshold), now)
					return
				}
				a.ApplyApproval(now)
			},
		)
		return err
	})
	if err != nil {
		return nil, s.photoMatchFailed(ctx, app.ID, err)
	}

	s.metrics.ObservePhotoMatchScore(score)
	details := map[string]string{"score": strconv.Itoa(score)}
	if score < s.photoThreshold {
		s.metrics.IncrementPhotoMatch("failed")
		s.metrics.IncrementTransition(string(models.StatusRejected))
		s.auditor.Emit(ctx, audit.Event{
			Action:        audit.ActionPhotoMatchFailed,
			UserID:        userID,
			ApplicationID: app.ID.String(),
			Reason:        models.PhotoMismatchReason(s.photoThreshold),
			Details:       details,
		})
		return &models.PhotoMatchResult{Message: "Photo match failed", Match: score}, nil
	}

	s.metrics.IncrementPhotoMatch("passed")
	s.metrics.IncrementTransition(string(models.StatusApproved))
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionPhotoMatchPassed,
		UserID:        userID,
		ApplicationID: app.ID.String(),
		Details:       details,
	})
	return &models.PhotoMatchResult{Message: "Photo match success", Match: score, Passed: true}, nil
}

// consumePhotoMatchAttempt checks the step guards and spends one attempt in
// its own transaction. When none are left the application is rejected and
// exhausted is true.
func (s *Service) consumePhotoMatchAttempt(ctx context.Context, appID id.ApplicationID, now time.Time) (exhausted bool, err error) {
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.apps.Execute(ctx, appID,
			func(a *models.Application) error {
				if err := a.CanPhotoMatch(); err != nil {
					return err
				}
				n, err := s.docs.CountByApplication(ctx, a.ID)
				if err != nil {
					return err
				}
				if n == 0 {
					return dErrors.New(dErrors.CodeBadRequest, "Upload a document before photo match")
				}
				_, ok, err := s.ledger.Consume(ctx, a.ID, models.StepPhotoMatch.Int(), s.maxAttempts)
				if err != nil {
					return err
				}
				exhausted = !ok
				return nil
			},
			func(a *models.Application) {
				if exhausted {
					a.ApplyRejection(models.ReasonMaxAttempts, now)
				}
			},
		)
		return err
	})
	return exhausted, err
}

func (s *Service) photoMatchFailed(ctx context.Context, appID id.ApplicationID, err error) error {
	switch {
	case dErrors.HasCode(err, dErrors.CodeInvalidState):
		s.metrics.IncrementPhotoMatch("invalid_state")
	case dErrors.HasCode(err, dErrors.CodeBadRequest):
		s.metrics.IncrementPhotoMatch("rejected_input")
	default:
		s.metrics.IncrementPhotoMatch("error")
		s.logger.ErrorContext(ctx, "photo match failed",
			"error", err,
			"application_id", appID.String(),
		)
	}
	return translate(err, "Photo match failed")
}
