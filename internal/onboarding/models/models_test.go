package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJourneyOrdering(t *testing.T) {
	assert.Equal(t, StepAbout, StepLogin.Next())
	assert.Equal(t, StepContactVerification, StepAbout.Next())
	assert.Equal(t, StepKYC, StepContactVerification.Next())
	assert.Equal(t, StepKeyPerson, StepKYC.Next())
	assert.Equal(t, StepESigning, StepKeyPerson.Next())
	assert.Equal(t, StepComplete, StepESigning.Next())
	assert.Equal(t, StepComplete, StepComplete.Next())

	assert.True(t, StepAbout.Before(StepKYC))
	assert.False(t, StepKYC.Before(StepKYC))

	_, ok := ParseStepID("nowhere")
	assert.False(t, ok)
}

func TestRecordOwnership(t *testing.T) {
	for _, key := range AllRecords {
		step := key.Step()
		assert.NotEmpty(t, step, key)
		assert.Contains(t, step.Records(), key)
	}
	assert.Empty(t, StepComplete.Records())
	assert.Len(t, StepKYC.Records(), 4)
}

func TestUserTypeMonotonic(t *testing.T) {
	assert.True(t, UserTypeAnon.CanAdvanceTo(UserTypeTemp))
	assert.True(t, UserTypeTemp.CanAdvanceTo(UserTypePartner))
	assert.True(t, UserTypePartner.CanAdvanceTo(UserTypePartner))
	assert.False(t, UserTypePartner.CanAdvanceTo(UserTypeTemp))
	assert.False(t, UserTypePartner.CanAdvanceTo(UserTypeAnon))
	assert.False(t, UserTypeTemp.CanAdvanceTo(UserTypeAnon))

	ut, ok := ParseUserType("partner")
	assert.True(t, ok)
	assert.Equal(t, UserTypePartner, ut)
}

func TestStepRecordLocked(t *testing.T) {
	var missing *StepRecord
	assert.False(t, missing.Locked())

	rejected := &StepRecord{VerifiedPayload: &CanonicalResponse{OK: false}}
	assert.False(t, rejected.Locked(), "a negative result must not lock")

	verified := &StepRecord{VerifiedPayload: &CanonicalResponse{OK: true}}
	assert.True(t, verified.Locked())
}

func TestAsInt64(t *testing.T) {
	cases := []struct {
		in   any
		want int64
		ok   bool
	}{
		{float64(7), 7, true},
		{"42", 42, true},
		{7.5, 0, false},
		{"abc", 0, false},
		{true, 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := AsInt64(tc.in)
		assert.Equal(t, tc.ok, ok, "%v", tc.in)
		assert.Equal(t, tc.want, got, "%v", tc.in)
	}
}

func TestChannelFromRecord(t *testing.T) {
	sent := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := &StepRecord{
		Key: RecordContactEmail,
		Inputs: map[string]any{
			FieldValue:     "a@b.co",
			FieldOTPSentAt: sent.Format(time.RFC3339Nano),
		},
	}
	vc := ChannelFromRecord(ChannelEmail, rec)
	assert.Equal(t, "a@b.co", vc.Value)
	assert.Equal(t, sent, *vc.OTPSentAt)
	assert.False(t, vc.Verified)

	empty := ChannelFromRecord(ChannelMobile, nil)
	assert.Nil(t, empty.OTPSentAt)
	assert.Equal(t, RecordContactPhone, ChannelMobile.ContactRecord())
}
