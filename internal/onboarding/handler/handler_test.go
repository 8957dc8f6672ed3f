package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"kycflow/internal/onboarding/coordinator"
	"kycflow/internal/onboarding/coordinator/mocks"
	"kycflow/internal/onboarding/identity"
	"kycflow/internal/onboarding/models"
	"kycflow/internal/onboarding/steps"
	"kycflow/internal/onboarding/store"
	"kycflow/internal/platform/metrics"
	"kycflow/pkg/testutil"
)

const (
	mobile    = "9876543210"
	tempStart = `{"status":true,"data":{"userId":1,"userType":"TEMP"}}`
	metaData  = `{"status":true,"code":200,"message":"ok","current_page":"PARTNER_DETAILS"}`
)

type fixture struct {
	t       *testing.T
	backend *mocks.MockBackend
	kv      *store.InMemoryStore
	metrics *metrics.Metrics
	router  chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	kv := store.NewInMemoryStore(time.Hour)
	logger := slog.New(slog.DiscardHandler)

	mgr, err := coordinator.NewManager(backend, kv, 8,
		coordinator.WithManagerLogger(logger),
		coordinator.WithCoordinatorOptions(coordinator.WithLogger(logger)),
	)
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	router := chi.NewRouter()
	New(mgr, logger, m, 1<<20).Register(router)
	return &fixture{t: t, backend: backend, kv: kv, metrics: m, router: router}
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	return testutil.Do(f.router, testutil.NewJSONRequest(f.t, method, path, body))
}

func (f *fixture) open() string {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/sessions", nil)
	require.Equal(f.t, http.StatusCreated, rec.Code)
	resp := testutil.Decode[openResponse](f.t, rec)
	require.NotEmpty(f.t, resp.SessionID)
	return resp.SessionID
}

// seedKYC persists a partner session that has finished everything before KYC.
func (f *fixture) seedKYC(sessionID string) {
	f.t.Helper()
	ctx := context.Background()
	layer := steps.New(f.kv, sessionID)
	require.NoError(f.t, layer.SaveIdentity(ctx, identity.Snapshot{
		Identity: models.Identity{UserID: 7, UserType: models.UserTypePartner},
		Mobile:   mobile,
		Token:    "t1",
	}))
	for _, step := range []models.StepID{models.StepLogin, models.StepAbout, models.StepContactVerification} {
		for _, key := range step.Records() {
			_, err := layer.Commit(ctx, key, map[string]any{models.FieldValue: "seed"}, models.CanonicalResponse{OK: true})
			require.NoError(f.t, err)
		}
	}
}

func TestOpenAndState(t *testing.T) {
	f := newFixture(t)
	id := f.open()
	assert.Equal(t, 1.0, promtest.ToFloat64(f.metrics.SessionsOpened))

	rec := f.do(http.MethodGet, "/sessions/"+id+"/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := testutil.Decode[stateResponse](t, rec)
	assert.Equal(t, models.StepLogin, state.Navigation.CurrentStep)
	assert.Len(t, state.Channels, 2)
}

func TestUnknownSession(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/sessions/nope/state", nil)
	testutil.AssertError(t, rec, http.StatusNotFound, "not_found")
}

func TestStartMovesTempUserToAbout(t *testing.T) {
	f := newFixture(t)
	id := f.open()
	f.backend.EXPECT().StartOnboarding(gomock.Any(), mobile).Return([]byte(tempStart), nil)
	f.backend.EXPECT().FetchMetaData(gomock.Any(), gomock.Any()).Return([]byte(metaData), nil)

	rec := f.do(http.MethodPost, "/sessions/"+id+"/login", map[string]string{"mobile": " " + mobile + " "})
	require.Equal(t, http.StatusOK, rec.Code)
	res := testutil.Decode[coordinator.Result](t, rec)
	assert.Equal(t, models.StepAbout, res.Navigation.CurrentStep)
	assert.Equal(t, models.UserTypeTemp, res.Navigation.Identity.UserType)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       any
		setup      func(f *fixture)
		wantStatus int
		wantCode   string
		wantDesc   string
	}{
		{
			name:       "malformed body",
			path:       "/login",
			body:       "not an object",
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
		{
			name:       "invalid mobile",
			path:       "/login",
			body:       map[string]string{"mobile": "12345"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_error",
			wantDesc:   "value must be a 10-digit mobile number starting with 6-9",
		},
		{
			name:       "step not reachable",
			path:       "/navigate",
			body:       map[string]string{"step": "kyc"},
			wantStatus: http.StatusConflict,
			wantCode:   "gate_closed",
		},
		{
			name:       "unknown channel",
			path:       "/contact/otp/send",
			body:       map[string]string{"channel": "fax", "value": mobile},
			wantStatus: http.StatusBadRequest,
			wantCode:   "bad_request",
		},
		{
			name: "unrecognized start reply",
			path: "/login",
			body: map[string]string{"mobile": mobile},
			setup: func(f *fixture) {
				f.backend.EXPECT().StartOnboarding(gomock.Any(), mobile).Return([]byte(`{"weird":1}`), nil)
			},
			wantStatus: http.StatusBadGateway,
			wantCode:   "onboarding_start_error",
			wantDesc:   "failed to start onboarding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := f.open()
			if tt.setup != nil {
				tt.setup(f)
			}
			rec := f.do(http.MethodPost, "/sessions/"+id+tt.path, tt.body)
			body := testutil.AssertError(t, rec, tt.wantStatus, tt.wantCode)
			if tt.wantDesc != "" {
				assert.Equal(t, tt.wantDesc, body.ErrorDescription)
			}
		})
	}
}

func TestVerifyPANNormalizesInput(t *testing.T) {
	f := newFixture(t)
	f.seedKYC("kyc-session")
	f.backend.EXPECT().
		VerifyPAN(gomock.Any(), gomock.Any(), models.PANInput{PAN: "ABCDE1234F"}).
		Return([]byte(`{"status":true,"code":200,"message":"verified","data":{"userId":7}}`), nil)

	rec := f.do(http.MethodPost, "/sessions/kyc-session/kyc/pan", map[string]string{"pan": " abcde1234f "})
	require.Equal(t, http.StatusOK, rec.Code)
	res := testutil.Decode[coordinator.Result](t, rec)
	require.NotNil(t, res.Record)
	assert.True(t, res.Record.Locked())
}

func TestContractErrorHidesDetails(t *testing.T) {
	f := newFixture(t)
	f.seedKYC("kyc-session")
	f.backend.EXPECT().
		VerifyBank(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]byte(`{"weird":1}`), nil)

	rec := f.do(http.MethodPost, "/sessions/kyc-session/kyc/bank", map[string]string{
		"account_number": "123456789012",
		"ifsc_code":      "hdfc0001234",
	})
	body := testutil.AssertError(t, rec, http.StatusInternalServerError, "backend_contract_error")
	assert.Empty(t, body.ErrorDescription)
}

func TestBusinessRejectionKeepsBackendMessage(t *testing.T) {
	f := newFixture(t)
	f.seedKYC("kyc-session")
	f.backend.EXPECT().
		VerifyGST(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]byte(`{"status":false,"code":400,"message":"GSTIN is inactive"}`), nil)

	rec := f.do(http.MethodPost, "/sessions/kyc-session/kyc/gst", map[string]string{"gst_number": "27ABCDE1234F1Z5"})
	body := testutil.AssertError(t, rec, http.StatusUnprocessableEntity, "business_rejection")
	assert.Equal(t, "GSTIN is inactive", body.ErrorDescription)
}

func TestGSTDeclarationUpload(t *testing.T) {
	f := newFixture(t)
	f.seedKYC("kyc-session")
	f.backend.EXPECT().
		UploadDocument(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.Caller, doc models.Document) ([]byte, error) {
			assert.Equal(t, "declaration.pdf", doc.Filename)
			return []byte(`{"status":true,"code":200,"message":"uploaded","data":{"filename":"declaration.pdf"}}`), nil
		})

	pdf := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
	rec := testutil.Do(f.router, testutil.NewUploadRequest(t, "/sessions/kyc-session/kyc/gst/declaration", uploadField, "declaration.pdf", pdf))

	require.Equal(t, http.StatusOK, rec.Code)
	res := testutil.Decode[coordinator.Result](t, rec)
	require.NotNil(t, res.Record)
	assert.Equal(t, "declaration", res.Record.Input("path"))
}

func TestGSTDeclarationRequiresFile(t *testing.T) {
	f := newFixture(t)
	f.seedKYC("kyc-session")

	rec := testutil.Do(f.router, testutil.NewUploadRequest(t, "/sessions/kyc-session/kyc/gst/declaration", uploadField, "", nil))
	testutil.AssertError(t, rec, http.StatusBadRequest, "bad_request")
}

func TestCloseSession(t *testing.T) {
	f := newFixture(t)
	id := f.open()

	rec := f.do(http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, "/sessions/"+id+"/state", nil)
	testutil.AssertError(t, rec, http.StatusNotFound, "not_found")
}
