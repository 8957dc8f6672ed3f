package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementSubmission("kyc.pan", OutcomeVerified)
	m.IncrementSubmission("kyc.pan", OutcomeVerified)
	m.IncrementSubmission("kyc.pan", OutcomeRejected)
	m.IncrementEnvelopeVariant("status_flat")
	m.IncrementPrefillShortCircuit("kyc.gst")
	m.IncrementIdentityPromotions()
	m.ObserveBackendCall("verify_pan", 120*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepSubmissions.WithLabelValues("kyc.pan", OutcomeVerified)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepSubmissions.WithLabelValues("kyc.pan", OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnvelopeVariants.WithLabelValues("status_flat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PrefillShortCircuits.WithLabelValues("kyc.gst")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdentityPromotions))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BackendCallDuration))
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
