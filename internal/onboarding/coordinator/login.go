package coordinator

import (
	"context"
	"time"

	"kycflow/internal/audit"
	"kycflow/internal/onboarding/envelope"
	"kycflow/internal/onboarding/metrics"
	"kycflow/internal/onboarding/models"
	dErrors "kycflow/pkg/domain-errors"
)

// Start begins onboarding for mobile. A TEMP user passes the login gate at
// once and is moved to the step the backend says they left off at. A
// returning PARTNER is sent a login OTP first.
func (c *Coordinator) Start(ctx context.Context, mobile string) (Result, error) {
	if err := c.validator.Mobile(mobile); err != nil {
		c.countSubmission(models.RecordLogin, metrics.OutcomeInvalid)
		return Result{}, err
	}
	prefill, err := c.steps.LoadPrefill(ctx, models.RecordLogin)
	if err != nil {
		return Result{}, err
	}
	if prefill != nil {
		if prefill.Input(models.FieldValue) != mobile {
			return Result{}, dErrors.New(dErrors.CodeIdentityMismatch, "session already started for a different mobile")
		}
		return c.prefilled(ctx, prefill), nil
	}

	// The login record stays PENDING until the start settles, so a second
	// concurrent start is turned away instead of reaching the backend.
	c.gate.Reset(models.RecordLogin)
	if err := c.gate.Begin(models.RecordLogin); err != nil {
		return Result{}, err
	}

	_, errUninit := c.identity.Current()
	fresh := errUninit != nil

	started := time.Now()
	id, resp, err := c.identity.Initialize(ctx, mobile)
	c.observeCall(envelope.KindStartOnboarding, started)
	if err != nil {
		c.gate.Fail(models.RecordLogin)
		if dErrors.HasCode(err, dErrors.CodeBackendContract) {
			c.countSubmission(models.RecordLogin, metrics.OutcomeContract)
			c.logAudit(ctx, audit.ActionBackendContractViolation, models.RecordLogin, string(envelope.KindStartOnboarding))
		}
		return Result{}, err
	}

	persistCtx := context.WithoutCancel(ctx)
	if err := c.steps.SaveIdentity(persistCtx, c.identity.Snapshot()); err != nil {
		c.gate.Fail(models.RecordLogin)
		return Result{}, err
	}
	if fresh {
		c.logAudit(persistCtx, audit.ActionIdentityInitialized, models.RecordLogin, "")
	}

	if id.UserType == models.UserTypePartner {
		if res, done, err := c.otpSettled(ctx, models.RecordLogin, models.ChannelMobile, mobile, false); done || err != nil {
			c.gate.Release(models.RecordLogin)
			return res, err
		}
		return c.deliverOTP(ctx, models.RecordLogin, models.ChannelMobile, mobile)
	}

	record, err := c.steps.Commit(persistCtx, models.RecordLogin, map[string]any{models.FieldValue: mobile}, resp)
	if err != nil {
		c.gate.Fail(models.RecordLogin)
		return Result{}, err
	}
	c.gate.Verify(models.RecordLogin)
	c.countSubmission(models.RecordLogin, metrics.OutcomeVerified)
	c.resume(persistCtx)
	c.settle(models.StepLogin)
	return Result{Record: record, Navigation: c.State()}, nil
}

// VerifyLoginOTP completes a returning partner's login. The verified reply
// refreshes the identity and the user is moved to their resume step.
func (c *Coordinator) VerifyLoginOTP(ctx context.Context, otp string) (Result, error) {
	return c.verifyOTP(ctx, models.RecordLogin, models.ChannelMobile, otp)
}

// ResendLoginOTP sends a fresh login OTP to the session's mobile.
func (c *Coordinator) ResendLoginOTP(ctx context.Context) (Result, error) {
	mobile := c.identity.Mobile()
	if mobile == "" {
		return Result{}, dErrors.New(dErrors.CodeNotInitialized, "onboarding has not been started")
	}
	return c.sendOTP(ctx, models.RecordLogin, models.ChannelMobile, mobile, true)
}

// sendOTP delivers an OTP for record. A send to the same value is not
// repeated unless resend is set, and a verified record never sends again.
func (c *Coordinator) sendOTP(ctx context.Context, key models.RecordKey, channel models.Channel, value string, resend bool) (Result, error) {
	if res, done, err := c.otpSettled(ctx, key, channel, value, resend); done || err != nil {
		return res, err
	}
	if err := c.requireReachable(key.Step()); err != nil {
		return Result{}, err
	}
	c.gate.Reset(key)
	if err := c.gate.Begin(key); err != nil {
		return Result{}, err
	}
	return c.deliverOTP(ctx, key, channel, value)
}

// otpSettled answers a send without the backend when key is already locked,
// or when an OTP already went to value and no resend was asked for.
func (c *Coordinator) otpSettled(ctx context.Context, key models.RecordKey, channel models.Channel, value string, resend bool) (Result, bool, error) {
	existing, err := c.steps.Load(ctx, key)
	if err != nil {
		return Result{}, false, err
	}
	if existing.Locked() {
		return c.prefilled(ctx, existing), true, nil
	}
	if !resend && existing.Input(models.FieldValue) == value && existing.Input(models.FieldOTPSentAt) != "" {
		c.logger.InfoContext(ctx, "otp already sent, not resending", "step", key, "channel", channel)
		if c.metrics != nil {
			c.metrics.IncrementPrefillShortCircuit(string(key))
		}
		return Result{Record: existing, Navigation: c.State()}, true, nil
	}
	return Result{}, false, nil
}

// deliverOTP sends the OTP while key is PENDING. A delivered OTP releases the
// key for verification; a failed send leaves it FAILED.
func (c *Coordinator) deliverOTP(ctx context.Context, key models.RecordKey, channel models.Channel, value string) (Result, error) {
	caller, err := c.identity.Caller(ctx, c.now())
	if err != nil {
		c.gate.Release(key)
		return Result{}, err
	}

	resp, err := c.roundTrip(ctx, key, envelope.KindSendOTP, func(ctx context.Context) ([]byte, error) {
		return c.backend.SendOTP(ctx, caller, channel, value)
	})
	if err != nil {
		c.gate.Fail(key)
		return Result{}, err
	}
	if !resp.OK {
		c.gate.Fail(key)
		c.countSubmission(key, metrics.OutcomeRejected)
		c.logger.WarnContext(ctx, "otp send rejected by backend", "step", key, "channel", channel)
		return Result{Navigation: c.State()}, dErrors.New(dErrors.CodeBusinessRejection, rejectionMessage(resp, "could not send the OTP"))
	}

	record, err := c.steps.Draft(context.WithoutCancel(ctx), key, map[string]any{
		models.FieldValue:     value,
		models.FieldOTPSentAt: c.now().UTC().Format(time.RFC3339Nano),
	})
	c.gate.Release(key)
	if err != nil {
		return Result{}, err
	}
	c.logger.InfoContext(ctx, "otp sent", "step", key, "channel", channel)
	return Result{Record: record, Navigation: c.State()}, nil
}

// verifyOTP checks otp against the value the last OTP was sent to. A
// verified MOBILE channel promotes the identity and refreshes the resume hint.
func (c *Coordinator) verifyOTP(ctx context.Context, key models.RecordKey, channel models.Channel, otp string) (Result, error) {
	existing, err := c.steps.Load(ctx, key)
	if err != nil {
		return Result{}, err
	}
	value := existing.Input(models.FieldValue)

	sub := submission{
		record: key,
		kind:   envelope.KindVerifyOTP,
		inputs: map[string]any{
			models.FieldValue:     value,
			models.FieldOTPSentAt: existing.Input(models.FieldOTPSentAt),
		},
		validate: func() error {
			if value == "" || existing.Input(models.FieldOTPSentAt) == "" {
				return dErrors.New(dErrors.CodeBadRequest, "no OTP has been sent for "+string(channel))
			}
			return c.validator.OTP(otp)
		},
		call: func(ctx context.Context, caller models.Caller) ([]byte, error) {
			return c.backend.VerifyOTP(ctx, caller, channel, value, otp)
		},
	}
	if channel == models.ChannelMobile {
		sub.onVerified = func(ctx context.Context, resp models.CanonicalResponse) error {
			if err := c.promote(ctx, key, resp); err != nil {
				return err
			}
			c.resume(ctx)
			return nil
		}
	}
	return c.submit(ctx, sub)
}

// promote records the PARTNER identity from a verified MOBILE reply. Only the
// TEMP to PARTNER transition counts as a promotion.
func (c *Coordinator) promote(ctx context.Context, key models.RecordKey, resp models.CanonicalResponse) error {
	prev, _ := c.identity.Current()
	id, err := c.identity.PromoteToPartner(ctx, resp)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeBackendContract) {
			c.countSubmission(key, metrics.OutcomeContract)
			c.contractViolation(ctx, key, envelope.KindVerifyOTP, err)
		}
		return err
	}
	if err := c.steps.SaveIdentity(ctx, c.identity.Snapshot()); err != nil {
		return err
	}
	if prev.UserType == models.UserTypePartner {
		c.logger.DebugContext(ctx, "partner identity refreshed", "user_id", id.UserID)
		return nil
	}
	if c.metrics != nil {
		c.metrics.IncrementIdentityPromotions()
	}
	c.logAudit(ctx, audit.ActionIdentityPromoted, key, "")
	c.logger.InfoContext(ctx, "identity promoted to partner", "user_id", id.UserID)
	return nil
}

func rejectionMessage(resp models.CanonicalResponse, fallback string) string {
	if resp.Message != "" {
		return resp.Message
	}
	return fallback
}
