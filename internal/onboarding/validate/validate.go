// Package validate performs the format-level checks every submission passes
// before any network call. Failures carry dErrors.CodeValidation.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"kycflow/internal/onboarding/models"
	dErrors "kycflow/pkg/domain-errors"
)

const pdfMIME = "application/pdf"

var patterns = map[string]*regexp.Regexp{
	"mobile":        regexp.MustCompile(`^[6-9]\d{9}$`),
	"otp":           regexp.MustCompile(`^\d{4,6}$`),
	"pan":           regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`),
	"accountnumber": regexp.MustCompile(`^\d{9,18}$`),
	"ifsc":          regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`),
	"gstin":         regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`),
	"srn":           regexp.MustCompile(`^[A-Z0-9\-/]{5,30}$`),
	"personname":    regexp.MustCompile(`^[A-Za-z]{2,}$`),
}

var hints = map[string]string{
	"required":      "is required",
	"min":           "needs at least one entry",
	"email":         "must be a valid email address",
	"mobile":        "must be a 10-digit mobile number starting with 6-9",
	"otp":           "must be 4 to 6 digits",
	"pan":           "must look like ABCDE1234F",
	"accountnumber": "must be 9 to 18 digits",
	"ifsc":          "must look like ABCD0123456",
	"gstin":         "must be a 15-character GSTIN",
	"srn":           "must be 5 to 30 characters of A-Z, 0-9, - or /",
	"personname":    "must be at least two letters",
}

type Validator struct {
	validate       *validator.Validate
	maxUploadBytes int64
}

func New(maxUploadBytes int64) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	for tag, re := range patterns {
		// Registration only fails for empty tags or nil funcs.
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		})
	}
	return &Validator{validate: v, maxUploadBytes: maxUploadBytes}
}

// Struct validates a tagged input struct.
func (v *Validator) Struct(in any) error {
	return translate(v.validate.Struct(in))
}

// Mobile validates a login or contact mobile number.
func (v *Validator) Mobile(mobile string) error {
	return translate(v.validate.Var(mobile, "required,mobile"))
}

// Contact validates an OTP destination for the channel.
func (v *Validator) Contact(channel models.Channel, value string) error {
	if channel == models.ChannelEmail {
		return translate(v.validate.Var(value, "required,email"))
	}
	return v.Mobile(value)
}

func (v *Validator) OTP(otp string) error {
	return translate(v.validate.Var(otp, "required,otp"))
}

// Document checks that an upload is a non-empty PDF within the size limit.
func (v *Validator) Document(doc models.Document) error {
	if strings.TrimSpace(doc.Filename) == "" {
		return dErrors.New(dErrors.CodeValidation, "filename is required")
	}
	if len(doc.Content) == 0 {
		return dErrors.New(dErrors.CodeValidation, "document is empty")
	}
	if v.maxUploadBytes > 0 && int64(len(doc.Content)) > v.maxUploadBytes {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("document exceeds %d bytes", v.maxUploadBytes))
	}
	if mt := mimetype.Detect(doc.Content); !mt.Is(pdfMIME) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("document must be a PDF, got %s", mt.String()))
	}
	return nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid input")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return dErrors.New(dErrors.CodeValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fieldPath(fe)
	hint, ok := hints[fe.Tag()]
	if !ok {
		hint = "failed " + fe.Tag()
	}
	if field == "" {
		return "value " + hint
	}
	return field + " " + hint
}

// fieldPath drops the root struct name from the namespace:
// KeyPersons.personDetails[0].email becomes personDetails[0].email.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}
