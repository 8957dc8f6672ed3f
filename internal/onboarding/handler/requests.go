package handler

import (
	"strings"

	"kycflow/internal/onboarding/models"
)

type startRequest struct {
	Mobile string `json:"mobile"`
}

func (r *startRequest) Prepare() {
	r.Mobile = strings.TrimSpace(r.Mobile)
}

type otpRequest struct {
	OTP string `json:"otp"`
}

func (r *otpRequest) Prepare() {
	r.OTP = strings.TrimSpace(r.OTP)
}

type sendOTPRequest struct {
	Channel string `json:"channel"`
	Value   string `json:"value"`
	Resend  bool   `json:"resend"`
}

func (r *sendOTPRequest) Prepare() {
	r.Channel = strings.ToUpper(strings.TrimSpace(r.Channel))
	r.Value = strings.TrimSpace(r.Value)
}

type sendAllRequest struct {
	Mobile string `json:"mobile"`
	Email  string `json:"email"`
	Resend bool   `json:"resend"`
}

func (r *sendAllRequest) Prepare() {
	r.Mobile = strings.TrimSpace(r.Mobile)
	r.Email = strings.TrimSpace(r.Email)
}

type verifyContactRequest struct {
	Channel string `json:"channel"`
	OTP     string `json:"otp"`
}

func (r *verifyContactRequest) Prepare() {
	r.Channel = strings.ToUpper(strings.TrimSpace(r.Channel))
	r.OTP = strings.TrimSpace(r.OTP)
}

type aboutRequest struct {
	models.AboutInput
}

func (r *aboutRequest) Prepare() {
	r.PartnerIdentity = strings.TrimSpace(r.PartnerIdentity)
	r.BusinessType = strings.TrimSpace(r.BusinessType)
	r.BusinessCategory = strings.TrimSpace(r.BusinessCategory)
}

type panRequest struct {
	models.PANInput
}

func (r *panRequest) Prepare() {
	r.PAN = upper(r.PAN)
}

type bankRequest struct {
	models.BankInput
}

func (r *bankRequest) Prepare() {
	r.AccountNumber = strings.TrimSpace(r.AccountNumber)
	r.IFSC = upper(r.IFSC)
}

type gstRequest struct {
	models.GSTInput
}

func (r *gstRequest) Prepare() {
	r.GSTNumber = upper(r.GSTNumber)
}

type srnRequest struct {
	models.SRNInput
}

func (r *srnRequest) Prepare() {
	r.SRNNumber = upper(r.SRNNumber)
}

type keyPersonsRequest struct {
	models.KeyPersons
}

func (r *keyPersonsRequest) Prepare() {
	for i := range r.People {
		p := &r.People[i]
		p.FirstName = strings.TrimSpace(p.FirstName)
		p.LastName = strings.TrimSpace(p.LastName)
		p.MobileNumber = strings.TrimSpace(p.MobileNumber)
		p.Email = strings.TrimSpace(p.Email)
	}
}

type navigateRequest struct {
	Step string `json:"step"`
}

func upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

type openResponse struct {
	SessionID  string                 `json:"sessionId"`
	Navigation models.NavigationState `json:"navigation"`
}

type stateResponse struct {
	Navigation models.NavigationState                  `json:"navigation"`
	Records    map[models.RecordKey]*models.StepRecord `json:"records"`
	Channels   []models.VerificationChannel            `json:"channels"`
}
