package models

import "slices"

// StepID names a navigable stage of the onboarding journey. LOGIN and
// COMPLETE are pseudo-steps: the journey's entry and terminal states.
type StepID string

const (
	StepLogin               StepID = "LOGIN"
	StepAbout               StepID = "about"
	StepContactVerification StepID = "contactVerification"
	StepKYC                 StepID = "kyc"
	StepKeyPerson           StepID = "keyPerson"
	StepESigning            StepID = "eSigning"
	StepComplete            StepID = "COMPLETE"
)

// Journey is the linear transition table.
var Journey = []StepID{
	StepLogin,
	StepAbout,
	StepContactVerification,
	StepKYC,
	StepKeyPerson,
	StepESigning,
	StepComplete,
}

// ParseStepID returns the step named by s, or false when s names no step.
func ParseStepID(s string) (StepID, bool) {
	step := StepID(s)
	if slices.Contains(Journey, step) {
		return step, true
	}
	return "", false
}

// Index is the step's position in the journey, or -1 for unknown steps.
func (s StepID) Index() int {
	return slices.Index(Journey, s)
}

// Next returns the step after s. COMPLETE is its own successor.
func (s StepID) Next() StepID {
	i := s.Index()
	if i < 0 || i == len(Journey)-1 {
		return s
	}
	return Journey[i+1]
}

// Before reports whether s comes strictly earlier in the journey than other.
func (s StepID) Before(other StepID) bool {
	return s.Index() < other.Index()
}

func (s StepID) String() string {
	return string(s)
}

// RecordKey names one persisted StepRecord and its verification gate. Most
// steps own a single record; kyc and contactVerification own several.
type RecordKey string

const (
	RecordLogin        RecordKey = "login"
	RecordAbout        RecordKey = "about"
	RecordContactPhone RecordKey = "contactVerification.mobile"
	RecordContactEmail RecordKey = "contactVerification.email"
	RecordPAN          RecordKey = "kyc.pan"
	RecordBank         RecordKey = "kyc.bank"
	RecordGST          RecordKey = "kyc.gst"
	RecordSRN          RecordKey = "kyc.srn"
	RecordKeyPerson    RecordKey = "keyPerson"
	RecordESigning     RecordKey = "eSigning"
)

// AllRecords lists every record key in journey order.
var AllRecords = []RecordKey{
	RecordLogin,
	RecordAbout,
	RecordContactPhone,
	RecordContactEmail,
	RecordPAN,
	RecordBank,
	RecordGST,
	RecordSRN,
	RecordKeyPerson,
	RecordESigning,
}

var stepRecords = map[StepID][]RecordKey{
	StepLogin:               {RecordLogin},
	StepAbout:               {RecordAbout},
	StepContactVerification: {RecordContactPhone, RecordContactEmail},
	StepKYC:                 {RecordPAN, RecordBank, RecordGST, RecordSRN},
	StepKeyPerson:           {RecordKeyPerson},
	StepESigning:            {RecordESigning},
}

// Records returns the record keys whose gates must all be verified for the
// step's gate to open. COMPLETE owns none.
func (s StepID) Records() []RecordKey {
	return stepRecords[s]
}

// Step returns the navigable step that owns the record.
func (k RecordKey) Step() StepID {
	for step, keys := range stepRecords {
		if slices.Contains(keys, k) {
			return step
		}
	}
	return ""
}

// Valid reports whether k is a known record key.
func (k RecordKey) Valid() bool {
	return slices.Contains(AllRecords, k)
}

func (k RecordKey) String() string {
	return string(k)
}

// GateState is the per-record verification state.
type GateState string

const (
	GateUnstarted GateState = "UNSTARTED"
	GatePending   GateState = "PENDING"
	GateVerified  GateState = "VERIFIED"
	GateFailed    GateState = "FAILED"
)

// NavigationState is derived on every read, never stored.
type NavigationState struct {
	CurrentStep    StepID               `json:"currentStep"`
	ReachableSteps []StepID             `json:"reachableSteps"`
	Gates          map[RecordKey]string `json:"gates"`
	Identity       Identity             `json:"identity"`
}

// CanReach reports whether step is in the reachable set.
func (n NavigationState) CanReach(step StepID) bool {
	return slices.Contains(n.ReachableSteps, step)
}
