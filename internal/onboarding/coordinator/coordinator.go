// Package coordinator drives one onboarding session through its steps.
//
// Every submission runs the same pipeline: prefill short-circuit, local
// validation, remote call, envelope normalization, identity guard, then
// commit and gate transition. Navigation is derived from the gate on every
// read and never stored.
package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"kycflow/internal/audit"
	"kycflow/internal/onboarding/envelope"
	"kycflow/internal/onboarding/gate"
	"kycflow/internal/onboarding/identity"
	"kycflow/internal/onboarding/metrics"
	"kycflow/internal/onboarding/models"
	"kycflow/internal/onboarding/steps"
	"kycflow/internal/onboarding/store"
	"kycflow/internal/onboarding/validate"
	dErrors "kycflow/pkg/domain-errors"
)

// Backend is the remote onboarding API. Every call returns the raw reply
// body; the coordinator normalizes it.
type Backend interface {
	StartOnboarding(ctx context.Context, mobile string) ([]byte, error)
	SendOTP(ctx context.Context, caller models.Caller, channel models.Channel, value string) ([]byte, error)
	VerifyOTP(ctx context.Context, caller models.Caller, channel models.Channel, value, otp string) ([]byte, error)
	FetchMetaData(ctx context.Context, caller models.Caller) ([]byte, error)
	SubmitAboutYou(ctx context.Context, caller models.Caller, in models.AboutInput) ([]byte, error)
	VerifyPAN(ctx context.Context, caller models.Caller, in models.PANInput) ([]byte, error)
	VerifyBank(ctx context.Context, caller models.Caller, in models.BankInput) ([]byte, error)
	VerifyGST(ctx context.Context, caller models.Caller, in models.GSTInput) ([]byte, error)
	VerifySRN(ctx context.Context, caller models.Caller, in models.SRNInput) ([]byte, error)
	SubmitKeyPersons(ctx context.Context, caller models.Caller, in models.KeyPersons) ([]byte, error)
	FetchEsignURL(ctx context.Context, caller models.Caller) ([]byte, error)
	UploadDocument(ctx context.Context, caller models.Caller, doc models.Document) ([]byte, error)
}

// AuditPublisher receives onboarding audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const defaultMaxUploadBytes = 5 << 20

type Coordinator struct {
	sessionID string
	backend   Backend
	identity  *identity.Store
	steps     *steps.Layer
	gate      *gate.Gate
	validator *validate.Validator
	metrics   *metrics.Metrics
	auditor   AuditPublisher
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	position models.StepID
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(c *Coordinator) {
		c.auditor = p
	}
}

func WithValidator(v *validate.Validator) Option {
	return func(c *Coordinator) {
		c.validator = v
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// New builds a coordinator for sessionID. Call Load before use when the
// session may already have persisted state.
func New(sessionID string, backend Backend, kv store.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		sessionID: sessionID,
		backend:   backend,
		gate:      gate.New(),
		logger:    slog.Default(),
		now:       time.Now,
		position:  models.StepLogin,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.validator == nil {
		c.validator = validate.New(defaultMaxUploadBytes)
	}
	c.logger = c.logger.With("session_id", sessionID)
	c.identity = identity.New(backend,
		identity.WithLogger(c.logger),
		identity.WithEnvelopeObserver(c.observeEnvelope),
	)
	c.steps = steps.New(kv, sessionID,
		steps.WithLogger(c.logger),
		steps.WithClock(c.now),
	)
	return c
}

func (c *Coordinator) SessionID() string {
	return c.sessionID
}

// Load rehydrates identity, gates and position from the persisted snapshot.
// Locked records are VERIFIED, the stored resume hint is re-attested and the
// user is placed at the frontier.
func (c *Coordinator) Load(ctx context.Context) error {
	snap, err := c.steps.LoadIdentity(ctx)
	if err != nil {
		return err
	}
	if err := c.identity.Restore(snap); err != nil {
		return err
	}
	records, err := c.steps.LoadAll(ctx)
	if err != nil {
		return err
	}
	for key, record := range records {
		if record.Locked() {
			c.gate.Verify(key)
		}
	}
	hint, err := c.steps.LoadResumeHint(ctx)
	if err != nil {
		return err
	}
	if hint != "" {
		c.gate.Attest(hint)
	}

	c.mu.Lock()
	c.position = c.gate.Frontier()
	c.mu.Unlock()
	c.logger.InfoContext(ctx, "session loaded", "records", len(records), "resume_hint", hint)
	return nil
}

// State derives the navigation state from the gate.
func (c *Coordinator) State() models.NavigationState {
	c.mu.Lock()
	position := c.position
	c.mu.Unlock()
	id, _ := c.identity.Current()
	return models.NavigationState{
		CurrentStep:    position,
		ReachableSteps: c.gate.Reachable(),
		Gates:          c.gate.States(),
		Identity:       id,
	}
}

// Navigate moves the user to a reachable step.
func (c *Coordinator) Navigate(ctx context.Context, to models.StepID) (models.NavigationState, error) {
	if _, ok := models.ParseStepID(string(to)); !ok {
		return models.NavigationState{}, dErrors.New(dErrors.CodeBadRequest, "unknown step")
	}
	if err := c.requireReachable(to); err != nil {
		c.logger.WarnContext(ctx, "navigation rejected", "to", to)
		return models.NavigationState{}, err
	}
	c.mu.Lock()
	c.position = to
	c.mu.Unlock()
	return c.State(), nil
}

// Records returns every persisted record, drafts included, for prefill.
func (c *Coordinator) Records(ctx context.Context) (map[models.RecordKey]*models.StepRecord, error) {
	return c.steps.LoadAll(ctx)
}

// Channels returns the two contact verification channels.
func (c *Coordinator) Channels(ctx context.Context) ([]models.VerificationChannel, error) {
	out := make([]models.VerificationChannel, 0, 2)
	for _, channel := range []models.Channel{models.ChannelMobile, models.ChannelEmail} {
		record, err := c.steps.Load(ctx, channel.ContactRecord())
		if err != nil {
			return nil, err
		}
		out = append(out, models.ChannelFromRecord(channel, record))
	}
	return out, nil
}

func (c *Coordinator) requireReachable(step models.StepID) error {
	for _, reachable := range c.gate.Reachable() {
		if reachable == step {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeGateClosed, "step "+string(step)+" is not reachable yet")
}

// settle advances the user to the frontier, but only when they are still on
// the step the finished request belonged to.
func (c *Coordinator) settle(owner models.StepID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.position != owner {
		return
	}
	if frontier := c.gate.Frontier(); c.position.Before(frontier) {
		c.position = frontier
	}
}

func (c *Coordinator) observeEnvelope(kind envelope.Kind, variant envelope.Variant) {
	if c.metrics != nil {
		c.metrics.IncrementEnvelopeVariant(string(variant))
	}
	c.logger.Debug("backend reply normalized", "kind", kind, "variant", variant)
}

func (c *Coordinator) countSubmission(key models.RecordKey, outcome string) {
	if c.metrics != nil {
		c.metrics.IncrementSubmission(string(key), outcome)
	}
}

func (c *Coordinator) observeCall(kind envelope.Kind, started time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveBackendCall(string(kind), time.Since(started))
	}
}

func (c *Coordinator) logAudit(ctx context.Context, action audit.Action, key models.RecordKey, reason string) {
	id, _ := c.identity.Current()
	event := audit.Event{
		Action:    action,
		SessionID: c.sessionID,
		UserID:    id.UserID,
		UserType:  string(id.UserType),
		Step:      string(key),
		Reason:    reason,
	}
	var emitter audit.Emitter
	if c.auditor != nil {
		emitter = c.auditor
	}
	audit.Log(ctx, c.logger, emitter, event)
}
