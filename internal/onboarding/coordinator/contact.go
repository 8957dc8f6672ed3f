package coordinator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"kycflow/internal/onboarding/metrics"
	"kycflow/internal/onboarding/models"
)

// SendOTP sends a contact verification OTP on channel.
func (c *Coordinator) SendOTP(ctx context.Context, channel models.Channel, value string, resend bool) (Result, error) {
	if err := c.validator.Contact(channel, value); err != nil {
		c.countSubmission(channel.ContactRecord(), metrics.OutcomeInvalid)
		return Result{}, err
	}
	return c.sendOTP(ctx, channel.ContactRecord(), channel, value, resend)
}

// ContactResults pairs the outcome of each channel's send.
type ContactResults struct {
	Mobile Result `json:"mobile"`
	Email  Result `json:"email"`
}

// SendContactOTPs sends both contact OTPs concurrently. One channel failing
// does not cancel the other; the first error is returned.
func (c *Coordinator) SendContactOTPs(ctx context.Context, mobile, email string, resend bool) (ContactResults, error) {
	var (
		g   errgroup.Group
		out ContactResults
	)
	g.Go(func() error {
		res, err := c.SendOTP(ctx, models.ChannelMobile, mobile, resend)
		out.Mobile = res
		return err
	})
	g.Go(func() error {
		res, err := c.SendOTP(ctx, models.ChannelEmail, email, resend)
		out.Email = res
		return err
	})
	err := g.Wait()
	return out, err
}

// VerifyOTP checks the OTP sent on channel. Verifying the mobile channel
// promotes the session to PARTNER.
func (c *Coordinator) VerifyOTP(ctx context.Context, channel models.Channel, otp string) (Result, error) {
	return c.verifyOTP(ctx, channel.ContactRecord(), channel, otp)
}
