package audit

import "time"

// Action names an audit event.
type Action string

const (
	ActionSessionOpened            Action = "session_opened"
	ActionIdentityInitialized      Action = "identity_initialized"
	ActionIdentityPromoted         Action = "identity_promoted"
	ActionStepVerified             Action = "step_verified"
	ActionStepRejected             Action = "step_rejected"
	ActionBackendContractViolation Action = "backend_contract_violation"
)

// Event is emitted from the coordinator to capture key onboarding actions.
// Keep it transport-agnostic so stores and sinks can fan out. It never
// carries OTPs, tokens or document contents.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	SessionID string    `json:"session_id"`
	UserID    int64     `json:"user_id,omitempty"`
	UserType  string    `json:"user_type,omitempty"`
	Step      string    `json:"step,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Device    string    `json:"device,omitempty"`
}
