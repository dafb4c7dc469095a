package httptransport_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"kycflow/internal/admin"
	"kycflow/internal/admin/adapters"
	"kycflow/internal/attempts"
	attemptstore "kycflow/internal/attempts/store"
	auditmemory "kycflow/internal/audit/memory"
	"kycflow/internal/blobstore"
	identityHandler "kycflow/internal/identity/handler"
	identityService "kycflow/internal/identity/service"
	"kycflow/internal/identity/store/revocation"
	"kycflow/internal/identity/store/user"
	jwttoken "kycflow/internal/jwt_token"
	kycHandler "kycflow/internal/kyc/handler"
	kycService "kycflow/internal/kyc/service"
	"kycflow/internal/kyc/store/application"
	"kycflow/internal/kyc/store/document"
	platformmetrics "kycflow/internal/platform/metrics"
	httptransport "kycflow/internal/transport/http"
	"kycflow/internal/verification"
	"kycflow/pkg/platform/tx"
	"kycflow/pkg/testutil"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

type app struct {
	router   http.Handler
	audit    *auditmemory.Recorder
	identity *identityService.Service
}

// newApp wires the real services over in-memory stores behind the router.
func newApp(t *testing.T, scores ...int) *app {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := auditmemory.NewRecorder()
	runner := tx.NewMemoryRunner()

	users := user.New()
	apps := application.NewInMemory()
	trl := revocation.NewInMemoryTRL()
	jwtService := jwttoken.NewJWTService("flow-test-key", "kycflow", "kycflow-api")
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	identitySvc := identityService.New(users, apps, jwtService, trl,
		identityService.WithLogger(logger),
		identityService.WithAuditor(recorder),
		identityService.WithTx(runner),
		identityService.WithBcryptCost(bcrypt.MinCost),
	)
	blobs := blobstore.NewInMemory()
	kycSvc := kycService.New(apps, document.NewInMemory(), attempts.NewLedger(attemptstore.NewInMemory()), blobs, verification.NewFixedScorer(scores...),
		kycService.WithLogger(logger),
		kycService.WithAuditor(recorder),
		kycService.WithTx(runner),
	)
	adminSvc := admin.NewService(kycSvc, adapters.NewUserStoreAdapter(users), logger)

	reg := prometheus.NewRegistry()
	router := httptransport.NewRouter(httptransport.Config{
		Logger:   logger,
		Metrics:  platformmetrics.NewWithRegisterer(reg),
		Gatherer: reg,
		Handlers: []httptransport.RouteRegistrar{
			identityHandler.New(identitySvc, logger, validator, identitySvc),
			kycHandler.New(kycSvc, blobs, logger, validator, identitySvc),
			admin.NewHandler(adminSvc, logger, validator, identitySvc, "admin"),
		},
	})
	return &app{router: router, audit: recorder, identity: identitySvc}
}

func (a *app) call(t *testing.T, req *http.Request, token string) map[string]any {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := testutil.DoRequest(a.router, req)
	body := map[string]any{"_status": float64(rr.Code)}
	if len(rr.Body.Bytes()) > 0 && rr.Header().Get("Content-Type") == "application/json" {
		parsed := testutil.UnmarshalResponse[map[string]any](t, rr)
		for k, v := range *parsed {
			body[k] = v
		}
	}
	return body
}

func (a *app) signUp(t *testing.T, email, mobile string) string {
	t.Helper()
	res := a.call(t, testutil.NewJSONRequest(t, http.MethodPost, "/auth/register",
		map[string]string{"email": email, "mobile": mobile, "password": "secret1"}), "")
	require.Equal(t, float64(http.StatusCreated), res["_status"], res)
	return a.login(t, email, "secret1")
}

func (a *app) login(t *testing.T, email, password string) string {
	t.Helper()
	res := a.call(t, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password}), "")
	require.Equal(t, float64(http.StatusOK), res["_status"], res)
	return res["token"].(string)
}

func upload(t *testing.T, docType string) *http.Request {
	return testutil.NewMultipartRequest(t, http.MethodPost, "/kyc/upload",
		map[string]string{"type": docType},
		testutil.MultipartFile{Field: "document", Filename: "pan.png", Content: pngBytes},
	)
}

func status(res map[string]any) string {
	kyc, _ := res["kyc"].(map[string]any)
	s, _ := kyc["status"].(string)
	return s
}

func TestUploadAttemptsFlow(t *testing.T) {
	a := newApp(t)

	testutil.Given(t, "a registered applicant", func(t *testing.T) {
		token := a.signUp(t, "asha@example.com", "+919800000001")
		assert.Equal(t, "Not Started", status(a.call(t, testutil.NewRequest(t, http.MethodGet, "/kyc/dashboard"), token)))

		testutil.When(t, "three documents are uploaded", func(t *testing.T) {
			for want := 2; want >= 0; want-- {
				res := a.call(t, upload(t, "identity:PAN"), token)
				require.Equal(t, float64(http.StatusOK), res["_status"], res)
				assert.Equal(t, float64(want), res["attemptsLeft"])
			}

			testutil.Then(t, "the fourth upload rejects the application", func(t *testing.T) {
				res := a.call(t, upload(t, "identity:PAN"), token)
				assert.Equal(t, float64(http.StatusBadRequest), res["_status"])
				assert.Equal(t, "attempts_exhausted", res["error"])

				dash := a.call(t, testutil.NewRequest(t, http.MethodGet, "/kyc/dashboard"), token)
				assert.Equal(t, "Rejected", status(dash))

				res = a.call(t, upload(t, "identity:PAN"), token)
				assert.Equal(t, float64(http.StatusConflict), res["_status"])
			})
		})
	})
}

func TestWizardReviewFlow(t *testing.T) {
	a := newApp(t)
	_, err := a.identity.CreateAdmin(context.Background(), "root@example.com", "+919800000000", "admin-secret")
	require.NoError(t, err)
	adminToken := a.login(t, "root@example.com", "admin-secret")

	testutil.Given(t, "an applicant who completed the wizard", func(t *testing.T) {
		token := a.signUp(t, "ravi@example.com", "+919800000002")

		res := a.call(t, testutil.NewJSONRequest(t, http.MethodPut, "/kyc/personal-details", map[string]string{
			"fullName": "Ravi Kumar", "dob": "1990-04-12", "fatherName": "Mohan Kumar", "address": "12 MG Road",
		}), token)
		require.Equal(t, float64(http.StatusOK), res["_status"], res)

		res = a.call(t, testutil.NewJSONRequest(t, http.MethodPut, "/kyc/document-selection", map[string]string{
			"category": "identity", "kind": "PAN", "number": "ABCDE1234F",
		}), token)
		require.Equal(t, float64(http.StatusOK), res["_status"], res)

		res = a.call(t, upload(t, "identity:PAN"), token)
		require.Equal(t, float64(http.StatusOK), res["_status"], res)
		documentID := res["documentId"].(string)

		res = a.call(t, testutil.NewRequest(t, http.MethodPost, "/kyc/complete"), token)
		require.Equal(t, float64(http.StatusOK), res["_status"], res)
		assert.Equal(t, "Pending Review", res["status"])

		testutil.When(t, "another applicant asks for the document", func(t *testing.T) {
			other := a.signUp(t, "nosy@example.com", "+919800000003")
			res := a.call(t, testutil.NewRequest(t, http.MethodGet, "/kyc/documents/"+documentID+"/content"), other)

			testutil.Then(t, "access is denied", func(t *testing.T) {
				assert.Equal(t, float64(http.StatusForbidden), res["_status"])
			})
		})

		testutil.When(t, "the admin reviews the pending queue", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/kyc/documents/"+documentID+"/content")
			req.Header.Set("Authorization", "Bearer "+adminToken)
			rr := testutil.DoRequest(a.router, req)
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, pngBytes, rr.Body.Bytes())

			res := a.call(t, testutil.NewRequest(t, http.MethodGet, "/admin/kyc/applications?status=Pending%20Review"), adminToken)
			require.Equal(t, float64(http.StatusOK), res["_status"], res)
			require.Equal(t, float64(1), res["total"])
			pending := res["applications"].([]any)[0].(map[string]any)
			assert.Equal(t, "ravi@example.com", pending["email"])

			res = a.call(t, testutil.NewJSONRequest(t, http.MethodPost,
				"/admin/kyc/applications/"+pending["id"].(string)+"/review",
				map[string]string{"decision": "approve"}), adminToken)
			require.Equal(t, float64(http.StatusOK), res["_status"], res)

			testutil.Then(t, "the applicant sees the approval", func(t *testing.T) {
				dash := a.call(t, testutil.NewRequest(t, http.MethodGet, "/kyc/dashboard"), token)
				assert.Equal(t, "Approved", status(dash))
			})
		})

		testutil.Then(t, "applicants cannot reach admin routes", func(t *testing.T) {
			res := a.call(t, testutil.NewRequest(t, http.MethodGet, "/admin/kyc/applications"), token)
			assert.Equal(t, float64(http.StatusForbidden), res["_status"])
		})
	})
}

func TestPhotoMatchFlow(t *testing.T) {
	a := newApp(t, 42)

	testutil.Given(t, "an applicant with an uploaded document", func(t *testing.T) {
		token := a.signUp(t, "meera@example.com", "+919800000004")
		res := a.call(t, upload(t, "identity:PAN"), token)
		require.Equal(t, float64(http.StatusOK), res["_status"], res)

		testutil.When(t, "the photo match scores below the threshold", func(t *testing.T) {
			res := a.call(t, testutil.NewRequest(t, http.MethodPost, "/kyc/photo-match"), token)

			testutil.Then(t, "the mismatch is reported and the application rejected", func(t *testing.T) {
				assert.Equal(t, float64(http.StatusBadRequest), res["_status"])
				assert.Equal(t, float64(42), res["match"])
				dash := a.call(t, testutil.NewRequest(t, http.MethodGet, "/kyc/dashboard"), token)
				assert.Equal(t, "Rejected", status(dash))
			})
		})
	})
}
