package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeVerified  = "verified"
	OutcomeRejected  = "rejected"
	OutcomePrefilled = "prefilled"
	OutcomeInvalid   = "invalid"
	OutcomeTransport = "transport_error"
	OutcomeContract  = "contract_error"
	OutcomeIdentity  = "identity_error"
)

type Metrics struct {
	StepSubmissions      *prometheus.CounterVec
	EnvelopeVariants     *prometheus.CounterVec
	PrefillShortCircuits *prometheus.CounterVec
	IdentityPromotions   prometheus.Counter
	BackendCallDuration  *prometheus.HistogramVec
}

// New registers the coordinator metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		StepSubmissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kycflow_step_submissions_total",
			Help: "Step submissions by record and outcome",
		}, []string{"step", "outcome"}),
		EnvelopeVariants: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kycflow_envelope_variant_total",
			Help: "Backend replies by matched envelope variant",
		}, []string{"variant"}),
		PrefillShortCircuits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kycflow_prefill_short_circuit_total",
			Help: "Submissions answered from a locked record without a backend call",
		}, []string{"step"}),
		IdentityPromotions: factory.NewCounter(prometheus.CounterOpts{
			Name: "kycflow_identity_promotions_total",
			Help: "Identities promoted to PARTNER",
		}),
		BackendCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kycflow_backend_call_duration_seconds",
			Help:    "Latency of backend calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"call"}),
	}
}

func (m *Metrics) IncrementSubmission(step, outcome string) {
	m.StepSubmissions.WithLabelValues(step, outcome).Inc()
}

func (m *Metrics) IncrementEnvelopeVariant(variant string) {
	m.EnvelopeVariants.WithLabelValues(variant).Inc()
}

func (m *Metrics) IncrementPrefillShortCircuit(step string) {
	m.PrefillShortCircuits.WithLabelValues(step).Inc()
}

func (m *Metrics) IncrementIdentityPromotions() {
	m.IdentityPromotions.Inc()
}

func (m *Metrics) ObserveBackendCall(call string, d time.Duration) {
	m.BackendCallDuration.WithLabelValues(call).Observe(d.Seconds())
}
