package models

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// CanonicalResponse is the single shape every backend reply is normalized to
// before business logic reads it.
type CanonicalResponse struct {
	OK      bool           `json:"ok"`
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Payload map[string]any `json:"payload"`
}

// String returns the payload value at key when it is a string.
func (c *CanonicalResponse) String(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	s, ok := c.Payload[key].(string)
	return s, ok
}

// Int64 returns the payload value at key when it is an integral number or a
// numeric string.
func (c *CanonicalResponse) Int64(key string) (int64, bool) {
	if c == nil {
		return 0, false
	}
	return AsInt64(c.Payload[key])
}

// AsInt64 coerces decoded JSON numbers and numeric strings to int64.
// Fractional or non-numeric values are rejected.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// StepRecord is the durable per-record state: what the user submitted and the
// last canonical payload proving server-side verification.
type StepRecord struct {
	Key             RecordKey          `json:"key"`
	Inputs          map[string]any     `json:"inputs"`
	VerifiedPayload *CanonicalResponse `json:"verifiedPayload,omitempty"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// Locked reports whether a positive verification has been committed. A
// negative verification result (ok=false) never locks.
func (r *StepRecord) Locked() bool {
	return r != nil && r.VerifiedPayload != nil && r.VerifiedPayload.OK
}

// Input returns the submitted value for field as a string.
func (r *StepRecord) Input(field string) string {
	if r == nil {
		return ""
	}
	switch v := r.Inputs[field].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Channel is an OTP delivery channel.
type Channel string

const (
	ChannelMobile Channel = "MOBILE"
	ChannelEmail  Channel = "EMAIL"
)

// ParseChannel accepts MOBILE or EMAIL.
func ParseChannel(s string) (Channel, bool) {
	switch Channel(s) {
	case ChannelMobile, ChannelEmail:
		return Channel(s), true
	}
	return "", false
}

// ContactRecord returns the contactVerification record backing the channel.
func (c Channel) ContactRecord() RecordKey {
	if c == ChannelEmail {
		return RecordContactEmail
	}
	return RecordContactPhone
}

// VerificationChannel is a read view over a contactVerification record.
type VerificationChannel struct {
	Channel   Channel    `json:"channel"`
	Value     string     `json:"value"`
	OTPSentAt *time.Time `json:"otpSentAt"`
	Verified  bool       `json:"verified"`
}

// Input field names shared by the persistence layer and the coordinator.
const (
	FieldValue     = "value"
	FieldOTPSentAt = "otpSentAt"
	FieldMobile    = "mobile"
)

// ChannelFromRecord derives the channel view from its record; absent records
// yield an unsent, unverified channel.
func ChannelFromRecord(c Channel, r *StepRecord) VerificationChannel {
	vc := VerificationChannel{Channel: c}
	if r == nil {
		return vc
	}
	vc.Value = r.Input(FieldValue)
	if sent := r.Input(FieldOTPSentAt); sent != "" {
		if t, err := time.Parse(time.RFC3339Nano, sent); err == nil {
			vc.OTPSentAt = &t
		}
	}
	vc.Verified = r.Locked()
	return vc
}
