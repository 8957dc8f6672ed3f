package coordinator

import (
	"context"
	"encoding/json"
	"time"

	"kycflow/internal/audit"
	"kycflow/internal/onboarding/envelope"
	"kycflow/internal/onboarding/metrics"
	"kycflow/internal/onboarding/models"
	dErrors "kycflow/pkg/domain-errors"
)

// Result is what every step operation reports back.
type Result struct {
	Record     *models.StepRecord     `json:"record,omitempty"`
	Prefilled  bool                   `json:"prefilled"`
	Navigation models.NavigationState `json:"navigation"`
}

type submission struct {
	record     models.RecordKey
	kind       envelope.Kind
	inputs     map[string]any
	validate   func() error
	call       func(ctx context.Context, caller models.Caller) ([]byte, error)
	guard      bool
	onVerified func(ctx context.Context, resp models.CanonicalResponse) error
}

func (c *Coordinator) submit(ctx context.Context, sub submission) (Result, error) {
	prefill, err := c.steps.LoadPrefill(ctx, sub.record)
	if err != nil {
		return Result{}, err
	}
	if prefill != nil {
		return c.prefilled(ctx, prefill), nil
	}
	if err := c.requireReachable(sub.record.Step()); err != nil {
		return Result{}, err
	}
	// A new attempt clears an earlier rejection.
	c.gate.Reset(sub.record)
	if sub.validate != nil {
		if err := sub.validate(); err != nil {
			c.countSubmission(sub.record, metrics.OutcomeInvalid)
			return Result{}, err
		}
	}
	caller, err := c.identity.Caller(ctx, c.now())
	if err != nil {
		return Result{}, err
	}
	if err := c.gate.Begin(sub.record); err != nil {
		return Result{}, err
	}

	resp, err := c.roundTrip(ctx, sub.record, sub.kind, func(ctx context.Context) ([]byte, error) {
		return sub.call(ctx, caller)
	})
	if err != nil {
		c.gate.Fail(sub.record)
		return Result{}, err
	}

	// The reply is applied even if the caller has gone away.
	persistCtx := context.WithoutCancel(ctx)

	if sub.guard {
		if err := c.identity.Guard(resp); err != nil {
			c.gate.Fail(sub.record)
			c.countSubmission(sub.record, metrics.OutcomeIdentity)
			c.logger.ErrorContext(ctx, "backend reply names a different user", "step", sub.record)
			return Result{}, err
		}
	}

	if !resp.OK {
		return c.reject(persistCtx, sub.record, sub.inputs, resp)
	}

	if sub.onVerified != nil {
		if err := sub.onVerified(persistCtx, resp); err != nil {
			c.gate.Fail(sub.record)
			return Result{}, err
		}
	}

	record, err := c.steps.Commit(persistCtx, sub.record, sub.inputs, resp)
	if err != nil {
		c.gate.Fail(sub.record)
		return Result{}, err
	}
	c.gate.Verify(sub.record)
	c.countSubmission(sub.record, metrics.OutcomeVerified)
	c.logAudit(persistCtx, audit.ActionStepVerified, sub.record, "")
	c.logger.InfoContext(ctx, "step verified", "step", sub.record)

	c.settle(sub.record.Step())
	return Result{Record: record, Navigation: c.State()}, nil
}

// roundTrip calls the backend and normalizes the reply. Transport failures
// and unrecognized envelopes come back as coded errors.
func (c *Coordinator) roundTrip(ctx context.Context, key models.RecordKey, kind envelope.Kind, call func(ctx context.Context) ([]byte, error)) (models.CanonicalResponse, error) {
	started := time.Now()
	raw, err := call(ctx)
	c.observeCall(kind, started)
	if err != nil {
		c.countSubmission(key, metrics.OutcomeTransport)
		c.logger.WarnContext(ctx, "backend call failed", "step", key, "kind", kind, "error", err)
		return models.CanonicalResponse{}, dErrors.Wrap(err, dErrors.CodeTransport, "the service is unreachable, please try again")
	}
	resp, variant, err := envelope.Normalize(raw, kind)
	if err != nil {
		c.countSubmission(key, metrics.OutcomeContract)
		c.contractViolation(ctx, key, kind, err)
		return models.CanonicalResponse{}, dErrors.Wrap(err, dErrors.CodeBackendContract, "unexpected response from the service")
	}
	c.observeEnvelope(kind, variant)
	return resp, nil
}

func (c *Coordinator) reject(ctx context.Context, key models.RecordKey, inputs map[string]any, resp models.CanonicalResponse) (Result, error) {
	record, err := c.steps.Commit(ctx, key, inputs, resp)
	c.gate.Fail(key)
	if err != nil {
		return Result{}, err
	}
	c.countSubmission(key, metrics.OutcomeRejected)
	c.logAudit(ctx, audit.ActionStepRejected, key, resp.Message)
	c.logger.WarnContext(ctx, "step rejected by backend", "step", key, "code", resp.Code)

	return Result{Record: record, Navigation: c.State()}, dErrors.New(dErrors.CodeBusinessRejection, rejectionMessage(resp, "verification was not successful"))
}

func (c *Coordinator) prefilled(ctx context.Context, record *models.StepRecord) Result {
	c.gate.Verify(record.Key)
	if c.metrics != nil {
		c.metrics.IncrementPrefillShortCircuit(string(record.Key))
	}
	c.countSubmission(record.Key, metrics.OutcomePrefilled)
	c.logger.DebugContext(ctx, "step answered from locked record", "step", record.Key)
	return Result{Record: record, Prefilled: true, Navigation: c.State()}
}

func (c *Coordinator) contractViolation(ctx context.Context, key models.RecordKey, kind envelope.Kind, err error) {
	c.logger.ErrorContext(ctx, "backend reply matched no known envelope",
		"step", key,
		"kind", kind,
		"error", err,
	)
	c.logAudit(ctx, audit.ActionBackendContractViolation, key, string(kind))
}

// inputsOf flattens a tagged input struct into the map a StepRecord stores.
func inputsOf(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
