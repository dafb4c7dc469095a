package admin_test

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"kycflow/internal/admin"
	"kycflow/internal/admin/mocks"
	kycModels "kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/middleware/auth"
	"kycflow/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/admin-mocks.go -package=mocks ReviewService
type HandlerSuite struct {
	suite.Suite
	service *mocks.MockReviewService
	router  chi.Router
	adminID id.UserID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

type tokens map[string]*auth.JWTClaims

func (t tokens) ValidateToken(token string) (*auth.JWTClaims, error) {
	if c, ok := t[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockReviewService(ctrl)
	s.adminID = id.NewUserID()
	validator := tokens{
		"admin-token": {UserID: s.adminID.String(), Role: "admin"},
		"user-token":  {UserID: id.NewUserID().String(), Role: "user"},
	}
	h := admin.NewHandler(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)), validator, nil, "admin")
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) get(path, token string) *http.Request {
	req := testutil.NewRequest(s.T(), http.MethodGet, path)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func (s *HandlerSuite) TestListApplications() {
	s.Run("filters by status", func() {
		s.service.EXPECT().ListApplications(gomock.Any(), "Pending Review").
			Return([]*admin.ApplicationSummary{{ID: "a1", Status: "Pending Review", KycID: "KYC-AB12CD34"}}, nil)

		rr := testutil.DoRequest(s.router, s.get("/admin/kyc/applications?status=Pending+Review", "admin-token"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "total", float64(1))
	})

	s.Run("unknown status", func() {
		s.service.EXPECT().ListApplications(gomock.Any(), "Verified").
			Return(nil, dErrors.New(dErrors.CodeBadRequest, "unknown status filter"))

		rr := testutil.DoRequest(s.router, s.get("/admin/kyc/applications?status=Verified", "admin-token"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("applicants are forbidden", func() {
		rr := testutil.DoRequest(s.router, s.get("/admin/kyc/applications", "user-token"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("anonymous is unauthorized", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/kyc/applications"))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})
}

func (s *HandlerSuite) TestReview() {
	appID := id.NewApplicationID()
	path := "/admin/kyc/applications/" + appID.String() + "/review"

	s.Run("approve", func() {
		s.service.EXPECT().Review(gomock.Any(), s.adminID, appID, &kycModels.ReviewRequest{Decision: kycModels.DecisionApprove}).
			Return(&admin.ApplicationSummary{ID: appID.String(), Status: "Approved"}, nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{"decision": "approve"})
		req.Header.Set("Authorization", "Bearer admin-token")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "status", "Approved")
	})

	s.Run("not pending review", func() {
		s.service.EXPECT().Review(gomock.Any(), s.adminID, appID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidState, "only applications pending review can be reviewed"))

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{"decision": "reject", "reason": "blurry"})
		req.Header.Set("Authorization", "Bearer admin-token")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "invalid_state")
	})

	s.Run("malformed id", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/kyc/applications/nope/review", map[string]string{"decision": "approve"})
		req.Header.Set("Authorization", "Bearer admin-token")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}
