package models

// AboutInput is the business profile submitted on the about step.
type AboutInput struct {
	PartnerIdentity  string `json:"partnerIdentity" validate:"required"`
	BusinessType     string `json:"businessType" validate:"required"`
	BusinessCategory string `json:"businessCategory,omitempty"`
}

// KeyPerson is one entry of the key-person step.
type KeyPerson struct {
	FirstName    string `json:"firstName" validate:"required,personname"`
	LastName     string `json:"lastName" validate:"required,personname"`
	MobileNumber string `json:"mobileNumber" validate:"required,mobile"`
	Email        string `json:"email" validate:"required,email"`
}

// KeyPersons wraps the list so it can be validated as one input.
type KeyPersons struct {
	People []KeyPerson `json:"personDetails" validate:"required,min=1,dive"`
}

// PANInput is the PAN check input.
type PANInput struct {
	PAN string `json:"pan" validate:"required,pan"`
}

// BankInput is the bank account check input.
type BankInput struct {
	AccountNumber string `json:"account_number" validate:"required,accountnumber"`
	IFSC          string `json:"ifsc_code" validate:"required,ifsc"`
}

// GSTInput is the GSTIN check input.
type GSTInput struct {
	GSTNumber string `json:"gst_number" validate:"required,gstin"`
}

// SRNInput is the company registration (SRN) check input.
type SRNInput struct {
	SRNNumber string `json:"srn_number" validate:"required,srn"`
}

// MobileInput is the login mobile number.
type MobileInput struct {
	Mobile string `json:"mobile" validate:"required,mobile"`
}

// OTPInput is a one-time password as typed by the user.
type OTPInput struct {
	OTP string `json:"otp" validate:"required,otp"`
}

// Document is an uploaded GST declaration.
type Document struct {
	Filename string
	Content  []byte
}
