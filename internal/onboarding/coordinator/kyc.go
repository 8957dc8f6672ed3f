package coordinator

import (
	"context"

	"kycflow/internal/onboarding/envelope"
	"kycflow/internal/onboarding/models"
)

// The GST record is satisfied by one of two user-chosen paths.
const (
	gstPathNumber      = "gstin"
	gstPathDeclaration = "declaration"
)

func (c *Coordinator) SubmitAbout(ctx context.Context, in models.AboutInput) (Result, error) {
	return c.submit(ctx, submission{
		record:   models.RecordAbout,
		kind:     envelope.KindAboutYou,
		inputs:   inputsOf(in),
		validate: func() error { return c.validator.Struct(in) },
		call: func(ctx context.Context, caller models.Caller) ([]byte, error) {
			return c.backend.SubmitAboutYou(ctx, caller, in)
		},
		guard: true,
	})
}

func (c *Coordinator) VerifyPAN(ctx context.Context, in models.PANInput) (Result, error) {
	return c.submit(ctx, submission{
		record:   models.RecordPAN,
		kind:     envelope.KindVerifyPAN,
		inputs:   inputsOf(in),
		validate: func() error { return c.validator.Struct(in) },
		call: func(ctx context.Context, caller models.Caller) ([]byte, error) {
			return c.backend.VerifyPAN(ctx, caller, in)
		},
		guard: true,
	})
}

func (c *Coordinator) VerifyBank(ctx context.Context, in models.BankInput) (Result, error) {
	return c.submit(ctx, submission{
		record:   models.RecordBank,
		kind:     envelope.KindVerifyBank,
		inputs:   inputsOf(in),
		validate: func() error { return c.validator.Struct(in) },
		call: func(ctx context.Context, caller models.Caller) ([]byte, error) {
			return c.backend.VerifyBank(ctx, caller, in)
		},
		guard: true,
	})
}

// VerifyGST checks a GSTIN. A rejected GSTIN does not fall back to the
// declaration upload; the user picks that path explicitly.
func (c *Coordinator) VerifyGST(ctx context.Context, in models.GSTInput) (Result, error) {
	inputs := inputsOf(in)
	inputs["path"] = gstPathNumber
	return c.submit(ctx, submission{
		record:   models.RecordGST,
		kind:     envelope.KindVerifyGST,
		inputs:   inputs,
		validate: func() error { return c.validator.Struct(in) },
		call: func(ctx context.Context, caller models.Caller) ([]byte, error) {
			return c.backend.VerifyGST(ctx, caller, in)
		},
		guard: true,
	})
}

// UploadGSTDeclaration satisfies the GST record with a signed declaration
// instead of a GSTIN.
func (c *Coordinator) UploadGSTDeclaration(ctx context.Context, doc models.Document) (Result, error) {
	return c.submit(ctx, submission{
		record: models.RecordGST,
		kind:   envelope.KindUploadDocument,
		inputs: map[string]any{
			"path":     gstPathDeclaration,
			"filename": doc.Filename,
		},
		validate: func() error { return c.validator.Document(doc) },
		call: func(ctx context.Context, caller models.Caller) ([]byte, error) {
			return c.backend.UploadDocument(ctx, caller, doc)
		},
		guard: true,
	})
}

func (c *Coordinator) VerifySRN(ctx context.Context, in models.SRNInput) (Result, error) {
	return c.submit(ctx, submission{
		record:   models.RecordSRN,
		kind:     envelope.KindVerifySRN,
		inputs:   inputsOf(in),
		validate: func() error { return c.validator.Struct(in) },
		call: func(ctx context.Context, caller models.Caller) ([]byte, error) {
			return c.backend.VerifySRN(ctx, caller, in)
		},
		guard: true,
	})
}

func (c *Coordinator) SubmitKeyPersons(ctx context.Context, in models.KeyPersons) (Result, error) {
	return c.submit(ctx, submission{
		record:   models.RecordKeyPerson,
		kind:     envelope.KindKeyPersons,
		inputs:   inputsOf(in),
		validate: func() error { return c.validator.Struct(in) },
		call: func(ctx context.Context, caller models.Caller) ([]byte, error) {
			return c.backend.SubmitKeyPersons(ctx, caller, in)
		},
		guard: true,
	})
}

// FetchEsignURL obtains the e-sign link. A positive reply locks the eSigning
// record with the URL in its payload.
func (c *Coordinator) FetchEsignURL(ctx context.Context) (Result, error) {
	return c.submit(ctx, submission{
		record: models.RecordESigning,
		kind:   envelope.KindEsignURL,
		call: func(ctx context.Context, caller models.Caller) ([]byte, error) {
			return c.backend.FetchEsignURL(ctx, caller)
		},
		guard: true,
	})
}
