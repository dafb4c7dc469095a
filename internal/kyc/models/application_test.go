package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	app, err := NewApplication(id.NewApplicationID(), id.NewUserID(), time.Now())
	require.NoError(t, err)
	return app
}

func TestNewApplication(t *testing.T) {
	app := newTestApplication(t)
	assert.Equal(t, StatusNotStarted, app.Status)
	assert.Equal(t, StepPersonalDetails, app.CurrentStep)
	assert.Empty(t, app.FailureReason)

	_, err := NewApplication(id.ApplicationID{}, id.NewUserID(), time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusNotStarted.CanTransitionTo(StatusInProgress))
	assert.True(t, StatusNotStarted.CanTransitionTo(StatusRejected))
	assert.False(t, StatusNotStarted.CanTransitionTo(StatusApproved))
	assert.True(t, StatusInProgress.CanTransitionTo(StatusPendingReview))
	assert.True(t, StatusPendingReview.CanTransitionTo(StatusApproved))
	assert.False(t, StatusPendingReview.CanTransitionTo(StatusInProgress))

	for _, terminal := range []ApplicationStatus{StatusApproved, StatusRejected} {
		assert.True(t, terminal.IsTerminal())
		for _, to := range []ApplicationStatus{StatusNotStarted, StatusInProgress, StatusPendingReview, StatusApproved, StatusRejected} {
			assert.False(t, terminal.CanTransitionTo(to), "%s -> %s", terminal, to)
		}
	}

	assert.NoError(t, CheckTransition(StatusInProgress, StatusInProgress))
	assert.NoError(t, CheckTransition(StatusPendingReview, StatusRejected))
	err := CheckTransition(StatusNotStarted, StatusApproved)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	assert.True(t, dErrors.HasCode(CheckTransition(StatusRejected, StatusApproved), dErrors.CodeInvariantViolation))

	_, ok := ParseStatus("Pending Review")
	assert.True(t, ok)
	_, ok = ParseStatus("Verified")
	assert.False(t, ok)
}

func TestApplicationSteps(t *testing.T) {
	now := time.Now()

	t.Run("upload starts the application and advances the step", func(t *testing.T) {
		app := newTestApplication(t)
		require.NoError(t, app.CanAcceptUpload())
		app.ApplyUpload(now)
		assert.Equal(t, StatusInProgress, app.Status)
		assert.Equal(t, StepDocumentUpload, app.CurrentStep)
	})

	t.Run("current step never decreases", func(t *testing.T) {
		app := newTestApplication(t)
		app.ApplyUpload(now)
		app.ApplyPersonalDetails(PersonalDetails{FullName: "A"}, now)
		assert.Equal(t, StepDocumentUpload, app.CurrentStep)
	})

	t.Run("selection replaces the same category", func(t *testing.T) {
		app := newTestApplication(t)
		app.ApplySelection(SelectedDocument{Category: CategoryIdentity, Kind: KindPAN, Number: "ABCDE1234F"}, now)
		app.ApplySelection(SelectedDocument{Category: CategoryAddress, Kind: KindAadhaar, Number: "123456789012"}, now)
		app.ApplySelection(SelectedDocument{Category: CategoryIdentity, Kind: KindPassport, Number: "P12345"}, now)
		require.Len(t, app.SelectedDocuments, 2)
		assert.Equal(t, "identity:Passport:P12345", app.SelectedDocuments[0].Tag())
	})

	t.Run("submit requires personal details", func(t *testing.T) {
		app := newTestApplication(t)
		app.ApplyUpload(now)
		assert.True(t, dErrors.HasCode(app.CanSubmit(), dErrors.CodeBadRequest))

		app.ApplyPersonalDetails(PersonalDetails{FullName: "A"}, now)
		require.NoError(t, app.CanSubmit())
		app.ApplySubmit(now)
		assert.Equal(t, StatusPendingReview, app.Status)
		assert.Equal(t, StepPhotoMatch, app.CurrentStep)
		assert.True(t, dErrors.HasCode(app.CanAcceptUpload(), dErrors.CodeInvalidState))
		assert.NoError(t, app.CanPhotoMatch())
	})

	t.Run("submit from not started is invalid", func(t *testing.T) {
		app := newTestApplication(t)
		assert.True(t, dErrors.HasCode(app.CanSubmit(), dErrors.CodeInvalidState))
	})

	t.Run("photo match needs a started application", func(t *testing.T) {
		app := newTestApplication(t)
		assert.True(t, dErrors.HasCode(app.CanPhotoMatch(), dErrors.CodeBadRequest))
		app.ApplyUpload(now)
		assert.NoError(t, app.CanPhotoMatch())
	})

	t.Run("terminal applications refuse every step", func(t *testing.T) {
		app := newTestApplication(t)
		app.ApplyRejection(ReasonMaxAttempts, now)
		assert.Equal(t, ReasonMaxAttempts, app.FailureReason)
		assert.True(t, dErrors.HasCode(app.CanAcceptUpload(), dErrors.CodeInvalidState))
		assert.True(t, dErrors.HasCode(app.CanPhotoMatch(), dErrors.CodeInvalidState))
		assert.True(t, dErrors.HasCode(app.CanEditDetails(), dErrors.CodeInvalidState))
		assert.True(t, dErrors.HasCode(app.CanReview(), dErrors.CodeInvalidState))
	})

	t.Run("review records the reviewer", func(t *testing.T) {
		app := newTestApplication(t)
		app.ApplyPersonalDetails(PersonalDetails{FullName: "A"}, now)
		app.ApplySubmit(now)
		require.NoError(t, app.CanReview())
		admin := id.NewUserID()
		app.ApplyReview(admin, true, "", now)
		assert.Equal(t, StatusApproved, app.Status)
		require.NotNil(t, app.ReviewedBy)
		assert.Equal(t, admin, *app.ReviewedBy)
	})
}

func TestPhotoMismatchReason(t *testing.T) {
	assert.Equal(t, ReasonPhotoMismatch, PhotoMismatchReason(60))
	assert.Equal(t, "Photo mismatch < 75%", PhotoMismatchReason(75))
}

func TestApplicationClone(t *testing.T) {
	app := newTestApplication(t)
	app.ApplyPersonalDetails(PersonalDetails{FullName: "A"}, time.Now())
	app.ApplySelection(SelectedDocument{Category: CategoryIdentity, Kind: KindPAN, Number: "ABCDE1234F"}, time.Now())

	cp := app.Clone()
	cp.PersonalDetails.FullName = "B"
	cp.SelectedDocuments[0].Number = "X"
	assert.Equal(t, "A", app.PersonalDetails.FullName)
	assert.Equal(t, "ABCDE1234F", app.SelectedDocuments[0].Number)
}
