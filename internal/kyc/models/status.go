package models

import (
	"fmt"

	dErrors "kycflow/pkg/domain-errors"
)

// ApplicationStatus is the lifecycle state of a KYC application.
type ApplicationStatus string

const (
	StatusNotStarted    ApplicationStatus = "Not Started"
	StatusInProgress    ApplicationStatus = "In Progress"
	StatusPendingReview ApplicationStatus = "Pending Review"
	StatusApproved      ApplicationStatus = "Approved"
	StatusRejected      ApplicationStatus = "Rejected"
)

var transitions = map[ApplicationStatus][]ApplicationStatus{
	StatusNotStarted:    {StatusInProgress, StatusRejected},
	StatusInProgress:    {StatusPendingReview, StatusApproved, StatusRejected},
	StatusPendingReview: {StatusApproved, StatusRejected},
}

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusPendingReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s ApplicationStatus) CanTransitionTo(to ApplicationStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CheckTransition fails with invariant_violation when from cannot move to
// to. Keeping the same status is always allowed.
func CheckTransition(from, to ApplicationStatus) error {
	if from == to || from.CanTransitionTo(to) {
		return nil
	}
	return dErrors.New(dErrors.CodeInvariantViolation,
		fmt.Sprintf("application cannot move from %s to %s", from, to))
}

func (s ApplicationStatus) String() string { return string(s) }

// ParseStatus accepts the wire value of a status.
func ParseStatus(s string) (ApplicationStatus, bool) {
	st := ApplicationStatus(s)
	return st, st.IsValid()
}

// Step numbers the onboarding wizard stages.
type Step int

const (
	StepPersonalDetails   Step = 1
	StepDocumentSelection Step = 2
	StepDocumentUpload    Step = 3
	StepReview            Step = 4
	StepPhotoMatch        Step = 5
)

func (s Step) Int() int { return int(s) }

// Failure reasons recorded on rejection.
const (
	ReasonMaxAttempts = "Max attempts reached"
	// ReasonPhotoMismatch is the reason at the default threshold of 60.
	ReasonPhotoMismatch = "Photo mismatch < 60%"
)

// PhotoMismatchReason renders the rejection reason for a threshold.
func PhotoMismatchReason(threshold int) string {
	return fmt.Sprintf("Photo mismatch < %d%%", threshold)
}
