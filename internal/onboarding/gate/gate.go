// Package gate tracks per-record verification state and answers whether
// navigation past a step is allowed.
//
// Each record moves UNSTARTED → PENDING → VERIFIED | FAILED, and FAILED goes
// back to UNSTARTED on retry. VERIFIED is terminal. A step's gate is open when
// every record it owns is VERIFIED, or when the backend's resume hint places
// the user beyond it.
package gate

import (
	"fmt"
	"sync"

	"kycflow/internal/onboarding/models"
	dErrors "kycflow/pkg/domain-errors"
)

type Gate struct {
	mu     sync.Mutex
	states map[models.RecordKey]models.GateState
	// steps strictly before attested are open on the backend's word.
	attested models.StepID
}

func New() *Gate {
	states := make(map[models.RecordKey]models.GateState, len(models.AllRecords))
	for _, key := range models.AllRecords {
		states[key] = models.GateUnstarted
	}
	return &Gate{states: states, attested: models.StepLogin}
}

// Begin marks an UNSTARTED key PENDING. A key that is already PENDING is
// rejected so the same record never has two requests in flight. A FAILED key
// must be Reset by the retry before it can begin again.
func (g *Gate) Begin(key models.RecordKey) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	state, err := g.stateLocked(key)
	if err != nil {
		return err
	}
	switch state {
	case models.GatePending:
		return dErrors.New(dErrors.CodeInFlight, fmt.Sprintf("%s already has a request in flight", key))
	case models.GateVerified:
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("%s is already verified", key))
	case models.GateFailed:
		return dErrors.New(dErrors.CodeConflict, fmt.Sprintf("%s failed and has not been reset", key))
	}
	g.states[key] = models.GatePending
	return nil
}

// Verify marks key VERIFIED.
func (g *Gate) Verify(key models.RecordKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.states[key]; ok {
		g.states[key] = models.GateVerified
	}
}

// Fail marks key FAILED unless it is already VERIFIED.
func (g *Gate) Fail(key models.RecordKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if state, ok := g.states[key]; ok && state != models.GateVerified {
		g.states[key] = models.GateFailed
	}
}

// Release returns a PENDING key to UNSTARTED when a request resolved without
// settling verification, such as an OTP send.
func (g *Gate) Release(key models.RecordKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.states[key] == models.GatePending {
		g.states[key] = models.GateUnstarted
	}
}

// Reset moves a FAILED key back to UNSTARTED when the user retries. Other
// states are untouched.
func (g *Gate) Reset(key models.RecordKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.states[key] == models.GateFailed {
		g.states[key] = models.GateUnstarted
	}
}

func (g *Gate) State(key models.RecordKey) models.GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.states[key]
}

// Attest opens every step strictly before step. It only ever moves forward.
func (g *Gate) Attest(step models.StepID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.attested.Before(step) {
		g.attested = step
	}
}

// Attested returns the furthest step the backend has placed the user at.
func (g *Gate) Attested() models.StepID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attested
}

// Open reports whether navigation past step is permitted.
func (g *Gate) Open(step models.StepID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.openLocked(step)
}

func (g *Gate) openLocked(step models.StepID) bool {
	if step == models.StepComplete {
		return false
	}
	if step.Before(g.attested) {
		return true
	}
	for _, key := range step.Records() {
		if g.states[key] != models.GateVerified {
			return false
		}
	}
	return true
}

// Frontier is the first step whose gate is closed, or COMPLETE.
func (g *Gate) Frontier() models.StepID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.frontierLocked()
}

func (g *Gate) frontierLocked() models.StepID {
	for _, step := range models.Journey {
		if !g.openLocked(step) {
			return step
		}
	}
	return models.StepComplete
}

// Reachable lists the steps the user may be on: every step up to and
// including the frontier.
func (g *Gate) Reachable() []models.StepID {
	g.mu.Lock()
	defer g.mu.Unlock()
	frontier := g.frontierLocked()
	steps := make([]models.StepID, 0, len(models.Journey))
	for _, step := range models.Journey {
		steps = append(steps, step)
		if step == frontier {
			break
		}
	}
	return steps
}

// States copies the per-record states for display.
func (g *Gate) States() map[models.RecordKey]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[models.RecordKey]string, len(g.states))
	for key, state := range g.states {
		out[key] = string(state)
	}
	return out
}

func (g *Gate) stateLocked(key models.RecordKey) (models.GateState, error) {
	state, ok := g.states[key]
	if !ok {
		return "", dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown record %q", key))
	}
	return state, nil
}
