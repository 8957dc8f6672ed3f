package steps

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"kycflow/internal/onboarding/identity"
	"kycflow/internal/onboarding/models"
	"kycflow/internal/onboarding/store"
	dErrors "kycflow/pkg/domain-errors"
)

type LayerSuite struct {
	suite.Suite
	ctx   context.Context
	kv    *store.InMemoryStore
	layer *Layer
	now   time.Time
}

func TestLayerSuite(t *testing.T) {
	suite.Run(t, new(LayerSuite))
}

func (s *LayerSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	s.kv = store.NewInMemoryStore(time.Hour)
	s.layer = New(s.kv, "sess-1", WithClock(func() time.Time { return s.now }))
}

func (s *LayerSuite) TestLoadAbsent() {
	record, err := s.layer.Load(s.ctx, models.RecordPAN)
	s.Require().NoError(err)
	s.Nil(record)

	prefill, err := s.layer.LoadPrefill(s.ctx, models.RecordPAN)
	s.Require().NoError(err)
	s.Nil(prefill)
}

func (s *LayerSuite) TestPositiveCommitLocks() {
	inputs := map[string]any{"pan": "ABCDE1234F"}
	resp := models.CanonicalResponse{OK: true, Message: "verified", Payload: map[string]any{"name": "ASHA"}}

	record, err := s.layer.Commit(s.ctx, models.RecordPAN, inputs, resp)
	s.Require().NoError(err)
	s.True(record.Locked())
	s.Equal(s.now, record.UpdatedAt)

	prefill, err := s.layer.LoadPrefill(s.ctx, models.RecordPAN)
	s.Require().NoError(err)
	s.Require().NotNil(prefill)
	s.Equal("ABCDE1234F", prefill.Input("pan"))
	s.Equal("ASHA", prefill.VerifiedPayload.Payload["name"])
}

func (s *LayerSuite) TestNegativeCommitDoesNotLock() {
	resp := models.CanonicalResponse{OK: false, Message: "GSTIN not active"}
	record, err := s.layer.Commit(s.ctx, models.RecordGST, map[string]any{"gst_number": "X"}, resp)
	s.Require().NoError(err)
	s.False(record.Locked())

	prefill, err := s.layer.LoadPrefill(s.ctx, models.RecordGST)
	s.Require().NoError(err)
	s.Nil(prefill)

	stored, err := s.layer.Load(s.ctx, models.RecordGST)
	s.Require().NoError(err)
	s.Equal("GSTIN not active", stored.VerifiedPayload.Message)

	_, err = s.layer.Commit(s.ctx, models.RecordGST, map[string]any{"path": "declaration"}, models.CanonicalResponse{OK: true})
	s.Require().NoError(err, "a negative record can be retried")
}

func (s *LayerSuite) TestLockedRecordIsNeverRewritten() {
	_, err := s.layer.Commit(s.ctx, models.RecordAbout, map[string]any{"businessType": "LLP"}, models.CanonicalResponse{OK: true})
	s.Require().NoError(err)

	existing, err := s.layer.Commit(s.ctx, models.RecordAbout, map[string]any{"businessType": "OTHER"}, models.CanonicalResponse{OK: true})
	s.True(dErrors.Is(err, dErrors.CodeConflict))
	s.Equal("LLP", existing.Input("businessType"))

	drafted, err := s.layer.Draft(s.ctx, models.RecordAbout, map[string]any{"businessType": "OTHER"})
	s.Require().NoError(err)
	s.Equal("LLP", drafted.Input("businessType"), "drafts are ignored once locked")
}

func (s *LayerSuite) TestDraftKeepsNegativePayload() {
	_, err := s.layer.Commit(s.ctx, models.RecordBank, map[string]any{"ifsc_code": "HDFC0001234"}, models.CanonicalResponse{OK: false, Message: "mismatch"})
	s.Require().NoError(err)

	record, err := s.layer.Draft(s.ctx, models.RecordBank, map[string]any{"ifsc_code": "HDFC0009999"})
	s.Require().NoError(err)
	s.Equal("HDFC0009999", record.Input("ifsc_code"))
	s.Require().NotNil(record.VerifiedPayload)
	s.Equal("mismatch", record.VerifiedPayload.Message)
}

func (s *LayerSuite) TestLoadAllSkipsNonStepKeys() {
	_, err := s.layer.Commit(s.ctx, models.RecordAbout, nil, models.CanonicalResponse{OK: true})
	s.Require().NoError(err)
	_, err = s.layer.Draft(s.ctx, models.RecordContactEmail, map[string]any{models.FieldValue: "a@b.co"})
	s.Require().NoError(err)
	s.Require().NoError(s.layer.SaveResumeHint(s.ctx, models.StepKYC))
	s.Require().NoError(s.kv.Put(s.ctx, "sess-1", "step:kyc.aadhaar", []byte(`{}`)))

	all, err := s.layer.LoadAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
	s.True(all[models.RecordAbout].Locked())
	s.False(all[models.RecordContactEmail].Locked())
}

func (s *LayerSuite) TestIdentityAndHint() {
	snap, err := s.layer.LoadIdentity(s.ctx)
	s.Require().NoError(err)
	s.True(snap.Identity.IsZero())

	want := identity.Snapshot{Identity: models.Identity{UserID: 7, UserType: models.UserTypePartner}, Mobile: "9876543210", Token: "t1"}
	s.Require().NoError(s.layer.SaveIdentity(s.ctx, want))
	got, err := s.layer.LoadIdentity(s.ctx)
	s.Require().NoError(err)
	s.Equal(want, got)

	hint, err := s.layer.LoadResumeHint(s.ctx)
	s.Require().NoError(err)
	s.Empty(hint)

	s.Require().NoError(s.layer.SaveResumeHint(s.ctx, models.StepAbout))
	hint, err = s.layer.LoadResumeHint(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.StepAbout, hint)
}

func (s *LayerSuite) TestCorruptRecord() {
	s.Require().NoError(s.kv.Put(s.ctx, "sess-1", "step:kyc.pan", []byte(`{not json`)))
	_, err := s.layer.Load(s.ctx, models.RecordPAN)
	s.True(dErrors.Is(err, dErrors.CodeInternal))
}

func TestSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	kv := store.NewInMemoryStore(time.Hour)
	a := New(kv, "a")
	b := New(kv, "b")

	_, err := a.Commit(ctx, models.RecordPAN, nil, models.CanonicalResponse{OK: true})
	require.NoError(t, err)

	record, err := b.LoadPrefill(ctx, models.RecordPAN)
	require.NoError(t, err)
	assert.Nil(t, record)

	require.NoError(t, a.Clear(ctx))
	record, err = a.Load(ctx, models.RecordPAN)
	require.NoError(t, err)
	assert.Nil(t, record)
}
