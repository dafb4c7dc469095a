package service

import (
	"context"
	"errors"
	"io"

	"kycflow/internal/audit"
	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/sentinel"
)

// ListDocuments returns the caller's uploads, oldest first.
func (s *Service) ListDocuments(ctx context.Context, userID id.UserID) ([]*models.Document, error) {
	app, err := s.applicationFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.ListByApplication(ctx, app.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

// OpenDocument streams a stored document to its owner or to an admin. The
// caller closes the returned reader.
func (s *Service) OpenDocument(ctx context.Context, userID id.UserID, isAdmin bool, docID id.DocumentID) (*models.Document, io.ReadCloser, error) {
	if userID.IsNil() {
		return nil, nil, dErrors.New(dErrors.CodeUnauthorized, "Unauthorized")
	}
	doc, err := s.docs.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "Document not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	if !isAdmin {
		app, err := s.apps.FindByID(ctx, doc.ApplicationID)
		if err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load KYC application")
		}
		if !app.IsOwnedBy(userID) {
			s.auditor.Emit(ctx, audit.Event{
				Action:        audit.ActionDocumentAccessDenied,
				UserID:        userID,
				ApplicationID: app.ID.String(),
				Details:       map[string]string{"document_id": docID.String()},
			})
			s.logger.WarnContext(ctx, "document access denied",
				"user_id", userID.String(),
				"document_id", docID.String(),
			)
			return nil, nil, dErrors.New(dErrors.CodeForbidden, "forbidden")
		}
	}
	rc, err := s.blobs.Open(ctx, doc.StorageHandle)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeNotFound, "Document content not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open document")
	}
	return doc, rc, nil
}
