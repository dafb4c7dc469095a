package service

import (
	"context"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"kycflow/internal/attempts"
	"kycflow/internal/audit"
	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/requestcontext"
)

const msgUploadExhausted = "Max attempts reached. KYC Rejected"

// UploadDocument records an upload the transport already stored under
// up.StorageHandle. Unless a document record ends up referencing the blob it
// is deleted before returning, whatever the outcome.
//
// The attempt is consumed under the application lock, so concurrent uploads
// can never accept more than the configured maximum.
func (s *Service) UploadDocument(ctx context.Context, userID id.UserID, up models.Upload) (result *models.UploadResult, err error) {
	ctx, end := s.startSpan(ctx, "UploadDocument", attribute.String("user.id", userID.String()))
	defer func() { end(err) }()

	keepBlob := false
	defer func() {
		if !keepBlob {
			s.releaseBlob(ctx, userID, up.StorageHandle)
		}
	}()

	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized")
	}
	up.DocumentType = strings.TrimSpace(up.DocumentType)
	if up.DocumentType == "" {
		s.metrics.IncrementUpload("rejected_input")
		return nil, dErrors.New(dErrors.CodeBadRequest, "Document type is required")
	}
	if up.StorageHandle == "" {
		s.metrics.IncrementUpload("rejected_input")
		return nil, dErrors.New(dErrors.CodeBadRequest, "Document file is required")
	}

	app, err := s.applicationFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	doc, err := models.NewDocument(id.NewDocumentID(), app.ID, up, now)
	if err != nil {
		s.metrics.IncrementUpload("rejected_input")
		return nil, err
	}
	var (
		count     int
		exhausted bool
		before    models.ApplicationStatus
	)
	var updated *models.Application
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.apps.Execute(ctx, app.ID,
			func(a *models.Application) error {
				before = a.Status
				if err := a.CanAcceptUpload(); err != nil {
					return err
				}
				n, ok, err := s.ledger.Consume(ctx, a.ID, models.StepDocumentUpload.Int(), s.maxAttempts)
				if err != nil {
					return err
				}
				count = n
				if !ok {
					exhausted = true
					return nil
				}
				return s.docs.Create(ctx, doc)
			},
			func(a *models.Application) {
				if exhausted {
					a.ApplyRejection(models.ReasonMaxAttempts, now)
					return
				}
				a.ApplyUpload(now)
			},
		)
		return err
	})
	if err != nil {
		switch {
		case dErrors.HasCode(err, dErrors.CodeInvalidState):
			s.metrics.IncrementUpload("invalid_state")
		default:
			s.metrics.IncrementUpload("error")
			s.logger.ErrorContext(ctx, "document upload failed",
				"error", err,
				"application_id", app.ID.String(),
			)
		}
		return nil, translate(err, "Upload failed")
	}

	if exhausted {
		s.metrics.IncrementUpload("exhausted")
		s.metrics.IncrementTransition(string(models.StatusRejected))
		s.auditor.Emit(ctx, audit.Event{
			Action:        audit.ActionAttemptsExhausted,
			UserID:        userID,
			ApplicationID: app.ID.String(),
			Reason:        models.ReasonMaxAttempts,
			Details:       map[string]string{"step": "upload"},
		})
		s.logger.InfoContext(ctx, "upload attempts exhausted, application rejected",
			"application_id", app.ID.String(),
		)
		return nil, dErrors.New(dErrors.CodeAttemptsExhausted, msgUploadExhausted)
	}

	keepBlob = true
	if before != updated.Status {
		s.metrics.IncrementTransition(string(updated.Status))
	}
	s.metrics.IncrementUpload("accepted")
	s.auditor.Emit(ctx, audit.Event{
		Action:        audit.ActionDocumentUploaded,
		UserID:        userID,
		ApplicationID: app.ID.String(),
		Details: map[string]string{
			"document_id":   doc.ID.String(),
			"document_type": doc.DocumentType,
			"attempt":       strconv.Itoa(count),
		},
	})
	return &models.UploadResult{
		Message:      "Document uploaded",
		AttemptsLeft: attempts.Remaining(count, s.maxAttempts),
		DocumentID:   doc.ID.String(),
	}, nil
}
