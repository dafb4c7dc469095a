package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kycflow/internal/admin/types"
	kycModels "kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
)

type stubReviewer struct {
	apps []*kycModels.Application
}

func (r *stubReviewer) ListApplications(context.Context, string) ([]*kycModels.Application, error) {
	return r.apps, nil
}

func (r *stubReviewer) Review(_ context.Context, adminID id.UserID, appID id.ApplicationID, req *kycModels.ReviewRequest) (*kycModels.Application, error) {
	for _, a := range r.apps {
		if a.ID == appID {
			a.ApplyReview(adminID, req.Decision == kycModels.DecisionApprove, req.Reason, time.Now())
			return a, nil
		}
	}
	return nil, errors.New("not found")
}

type directory map[id.UserID]*types.Applicant

func (d directory) FindApplicant(_ context.Context, userID id.UserID) (*types.Applicant, error) {
	if a, ok := d[userID]; ok {
		return a, nil
	}
	return nil, errors.New("no such user")
}

func TestServiceJoinsApplicants(t *testing.T) {
	known := id.NewUserID()
	a1, err := kycModels.NewApplication(id.NewApplicationID(), known, time.Now())
	require.NoError(t, err)
	a2, err := kycModels.NewApplication(id.NewApplicationID(), id.NewUserID(), time.Now())
	require.NoError(t, err)

	svc := NewService(&stubReviewer{apps: []*kycModels.Application{a1, a2}},
		directory{known: {UserID: known, KycID: "KYC-AB12CD34", Email: "a@x.com"}},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := svc.ListApplications(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "KYC-AB12CD34", got[0].KycID)
	assert.Equal(t, "a@x.com", got[0].Email)
	assert.Equal(t, "Not Started", got[0].Status)
	assert.Equal(t, 1, got[0].CurrentStep)
	assert.Empty(t, got[1].KycID, "missing applicant leaves identity blank")
}

func TestServiceReviewCarriesReviewer(t *testing.T) {
	app, err := kycModels.NewApplication(id.NewApplicationID(), id.NewUserID(), time.Now())
	require.NoError(t, err)
	adminID := id.NewUserID()
	svc := NewService(&stubReviewer{apps: []*kycModels.Application{app}}, directory{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	sum, err := svc.Review(context.Background(), adminID, app.ID, &kycModels.ReviewRequest{Decision: kycModels.DecisionReject, Reason: "blurry scan"})
	require.NoError(t, err)
	assert.Equal(t, "Rejected", sum.Status)
	assert.Equal(t, "blurry scan", sum.FailureReason)
	assert.Equal(t, adminID.String(), sum.ReviewedBy)
	assert.NotNil(t, sum.ReviewedAt)
}
