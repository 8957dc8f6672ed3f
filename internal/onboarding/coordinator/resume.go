package coordinator

import (
	"context"
	"fmt"
	"time"

	"kycflow/internal/audit"
	"kycflow/internal/onboarding/envelope"
	"kycflow/internal/onboarding/models"
)

// resumeTable maps the backend's current_page hint to a step. Anything else
// leaves the user where they are.
var resumeTable = map[string]models.StepID{
	"PARTNER_DETAILS": models.StepAbout,
	"KYC":             models.StepKYC,
}

// metaDataFields maps persisted metadata fields to the record they prefill.
var metaDataFields = map[models.RecordKey][]string{
	models.RecordAbout:     {"partnerIdentity", "businessType", "businessCategory"},
	models.RecordPAN:       {"pan"},
	models.RecordBank:      {"account_number", "ifsc_code"},
	models.RecordGST:       {"gst_number"},
	models.RecordSRN:       {"srn_number"},
	models.RecordKeyPerson: {"personDetails"},
}

// resume fetches the backend's resume hint and attests every step before it.
// Failures are logged and leave navigation untouched.
func (c *Coordinator) resume(ctx context.Context) {
	caller, err := c.identity.Caller(ctx, c.now())
	if err != nil {
		c.logger.WarnContext(ctx, "cannot fetch resume hint without identity", "error", err)
		return
	}
	started := time.Now()
	raw, err := c.backend.FetchMetaData(ctx, caller)
	c.observeCall(envelope.KindMetaData, started)
	if err != nil {
		c.logger.WarnContext(ctx, "resume hint unavailable", "error", err)
		return
	}
	resp, variant, err := envelope.Normalize(raw, envelope.KindMetaData)
	if err != nil {
		c.logger.ErrorContext(ctx, "metadata reply matched no known envelope", "error", err)
		c.logAudit(ctx, audit.ActionBackendContractViolation, "", string(envelope.KindMetaData))
		return
	}
	c.observeEnvelope(envelope.KindMetaData, variant)
	if !resp.OK {
		c.logger.WarnContext(ctx, "metadata request rejected", "message", resp.Message)
		return
	}

	c.draftFromMetaData(ctx, resp)

	hint, _ := resp.String("current_page")
	step, ok := resumeTable[hint]
	if !ok {
		c.logger.InfoContext(ctx, "unrecognized resume hint, staying put", "current_page", hint)
		return
	}
	if err := c.steps.SaveResumeHint(ctx, step); err != nil {
		c.logger.WarnContext(ctx, "failed to persist resume hint", "error", err)
	}
	c.gate.Attest(step)
	c.logger.InfoContext(ctx, "resume hint applied", "current_page", hint, "step", step)
}

// draftFromMetaData prefills records the session has never touched with the
// values the backend already holds.
func (c *Coordinator) draftFromMetaData(ctx context.Context, resp models.CanonicalResponse) {
	for key, fields := range metaDataFields {
		inputs := make(map[string]any)
		for _, field := range fields {
			if v, ok := resp.Payload[field]; ok && !blank(v) {
				inputs[field] = v
			}
		}
		if len(inputs) == 0 {
			continue
		}
		existing, err := c.steps.Load(ctx, key)
		if err != nil || existing != nil {
			continue
		}
		if key == models.RecordGST {
			inputs["path"] = gstPathNumber
		}
		if _, err := c.steps.Draft(ctx, key, inputs); err != nil {
			c.logger.WarnContext(ctx, "failed to draft from metadata", "step", key, "error", err)
		}
	}
}

func blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	default:
		return fmt.Sprint(t) == ""
	}
}
