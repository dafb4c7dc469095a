package models

import (
	"fmt"
	"time"

	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
)

// Application is the one-per-user KYC case.
//
// Invariants:
//   - Created with its owner at registration, status Not Started, step 1
//   - Status only moves along ApplicationStatus.CanTransitionTo
//   - Approved and Rejected are terminal: no step may mutate the application
//   - CurrentStep never decreases
//   - FailureReason is set exactly when the status is Rejected
type Application struct {
	ID                id.ApplicationID   `json:"id"`
	UserID            id.UserID          `json:"userId"`
	Status            ApplicationStatus  `json:"status"`
	CurrentStep       Step               `json:"currentStep"`
	FailureReason     string             `json:"failureReason,omitempty"`
	PersonalDetails   *PersonalDetails   `json:"personalDetails,omitempty"`
	SelectedDocuments []SelectedDocument `json:"selectedDocuments,omitempty"`
	ReviewedBy        *id.UserID         `json:"reviewedBy,omitempty"`
	ReviewedAt        *time.Time         `json:"reviewedAt,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

func NewApplication(appID id.ApplicationID, userID id.UserID, now time.Time) (*Application, error) {
	if appID.IsNil() || userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "application and user ids are required")
	}
	return &Application{
		ID:          appID,
		UserID:      userID,
		Status:      StatusNotStarted,
		CurrentStep: StepPersonalDetails,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (a *Application) IsOwnedBy(userID id.UserID) bool {
	return a.UserID == userID
}

func (a *Application) requireOpen() error {
	if a.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvalidState, fmt.Sprintf("KYC application is already %s", a.Status))
	}
	return nil
}

// CanEditDetails allows wizard edits while the applicant still owns the case.
func (a *Application) CanEditDetails() error {
	if err := a.requireOpen(); err != nil {
		return err
	}
	if a.Status == StatusPendingReview {
		return dErrors.New(dErrors.CodeInvalidState, "KYC application is awaiting review")
	}
	return nil
}

// CanAcceptUpload guards the upload step.
func (a *Application) CanAcceptUpload() error {
	return a.CanEditDetails()
}

// CanPhotoMatch guards the photo-match step, which runs after an upload
// started the application.
func (a *Application) CanPhotoMatch() error {
	if err := a.requireOpen(); err != nil {
		return err
	}
	if a.Status == StatusNotStarted {
		return dErrors.New(dErrors.CodeBadRequest, "Upload a document before photo match")
	}
	return nil
}

func (a *Application) CanSubmit() error {
	if err := a.requireOpen(); err != nil {
		return err
	}
	if a.Status != StatusInProgress {
		return dErrors.New(dErrors.CodeInvalidState, "KYC application must be in progress to submit")
	}
	if a.PersonalDetails == nil {
		return dErrors.New(dErrors.CodeBadRequest, "personal details are required before submitting")
	}
	return nil
}

func (a *Application) CanReview() error {
	if a.Status != StatusPendingReview {
		return dErrors.New(dErrors.CodeInvalidState, "only applications pending review can be reviewed")
	}
	return nil
}

// start moves a fresh application into progress. No-op otherwise.
func (a *Application) start() {
	if a.Status == StatusNotStarted {
		a.Status = StatusInProgress
	}
}

func (a *Application) advanceTo(step Step) {
	if step > a.CurrentStep {
		a.CurrentStep = step
	}
}

func (a *Application) ApplyPersonalDetails(d PersonalDetails, now time.Time) {
	a.start()
	a.PersonalDetails = &d
	a.advanceTo(StepDocumentSelection)
	a.UpdatedAt = now
}

// ApplySelection records doc, replacing an earlier selection in the same category.
func (a *Application) ApplySelection(doc SelectedDocument, now time.Time) {
	a.start()
	replaced := false
	for i := range a.SelectedDocuments {
		if a.SelectedDocuments[i].Category == doc.Category {
			a.SelectedDocuments[i] = doc
			replaced = true
		}
	}
	if !replaced {
		a.SelectedDocuments = append(a.SelectedDocuments, doc)
	}
	a.advanceTo(StepDocumentUpload)
	a.UpdatedAt = now
}

func (a *Application) ApplyUpload(now time.Time) {
	a.start()
	a.advanceTo(StepDocumentUpload)
	a.UpdatedAt = now
}

func (a *Application) ApplySubmit(now time.Time) {
	a.Status = StatusPendingReview
	a.advanceTo(StepPhotoMatch)
	a.UpdatedAt = now
}

// ApplyRejection is valid from any non-terminal status.
func (a *Application) ApplyRejection(reason string, now time.Time) {
	a.Status = StatusRejected
	a.FailureReason = reason
	a.UpdatedAt = now
}

func (a *Application) ApplyApproval(now time.Time) {
	a.Status = StatusApproved
	a.FailureReason = ""
	a.UpdatedAt = now
}

func (a *Application) ApplyReview(reviewer id.UserID, approve bool, reason string, now time.Time) {
	if approve {
		a.ApplyApproval(now)
	} else {
		a.ApplyRejection(reason, now)
	}
	a.ReviewedBy = &reviewer
	a.ReviewedAt = &now
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (a *Application) Clone() *Application {
	cp := *a
	if a.PersonalDetails != nil {
		pd := *a.PersonalDetails
		cp.PersonalDetails = &pd
	}
	if a.SelectedDocuments != nil {
		cp.SelectedDocuments = append([]SelectedDocument(nil), a.SelectedDocuments...)
	}
	if a.ReviewedBy != nil {
		rb := *a.ReviewedBy
		cp.ReviewedBy = &rb
	}
	if a.ReviewedAt != nil {
		ra := *a.ReviewedAt
		cp.ReviewedAt = &ra
	}
	return &cp
}
