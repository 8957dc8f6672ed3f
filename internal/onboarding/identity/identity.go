// Package identity holds the session's (userId, userType) pair and is the only
// writer of identity transitions.
//
// Invariants:
//   - userType advances ANON → TEMP → PARTNER and never regresses
//   - Current fails until Initialize has succeeded
//   - an expired credential is never handed to a caller
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kycflow/internal/onboarding/envelope"
	"kycflow/internal/onboarding/models"
	dErrors "kycflow/pkg/domain-errors"
)

// Starter issues the remote "start onboarding" call.
type Starter interface {
	StartOnboarding(ctx context.Context, mobile string) ([]byte, error)
}

// EnvelopeObserver is told which envelope variant each normalized reply used.
type EnvelopeObserver func(kind envelope.Kind, variant envelope.Variant)

// Snapshot is the persisted form of the store.
type Snapshot struct {
	Identity models.Identity `json:"identity"`
	Mobile   string          `json:"mobile"`
	Token    string          `json:"token,omitempty"`
}

type Store struct {
	starter Starter
	logger  *slog.Logger
	observe EnvelopeObserver

	mu    sync.RWMutex
	state Snapshot
}

type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithEnvelopeObserver(fn EnvelopeObserver) Option {
	return func(s *Store) {
		s.observe = fn
	}
}

func New(starter Starter, opts ...Option) *Store {
	s := &Store{
		starter: starter,
		logger:  slog.Default(),
		observe: func(envelope.Kind, envelope.Variant) {},
		state:   Snapshot{Identity: models.Identity{UserType: models.UserTypeAnon}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize starts onboarding for mobile and stores the returned identity.
// Calling it again with the same mobile returns the held identity without a
// remote call; a different mobile is an IdentityMismatch.
func (s *Store) Initialize(ctx context.Context, mobile string) (models.Identity, models.CanonicalResponse, error) {
	s.mu.RLock()
	held := s.state
	s.mu.RUnlock()
	if !held.Identity.IsZero() {
		if held.Mobile != mobile {
			return models.Identity{}, models.CanonicalResponse{}, dErrors.New(dErrors.CodeIdentityMismatch, "session already started for a different mobile")
		}
		return held.Identity, models.CanonicalResponse{OK: true}, nil
	}

	raw, err := s.starter.StartOnboarding(ctx, mobile)
	if err != nil {
		return models.Identity{}, models.CanonicalResponse{}, dErrors.Wrap(
			dErrors.Wrap(err, dErrors.CodeTransport, "start onboarding call failed"),
			dErrors.CodeOnboardingStart, "failed to start onboarding")
	}
	resp, variant, err := envelope.Normalize(raw, envelope.KindStartOnboarding)
	if err != nil {
		s.logger.ErrorContext(ctx, "start onboarding reply matched no envelope", "error", err)
		return models.Identity{}, models.CanonicalResponse{}, dErrors.Wrap(
			dErrors.Wrap(err, dErrors.CodeBackendContract, "unrecognized start onboarding reply"),
			dErrors.CodeOnboardingStart, "failed to start onboarding")
	}
	s.observe(envelope.KindStartOnboarding, variant)
	if !resp.OK {
		return models.Identity{}, resp, dErrors.New(dErrors.CodeOnboardingStart, resp.Message)
	}

	next, err := identityFromStart(resp)
	if err != nil {
		return models.Identity{}, resp, dErrors.Wrap(
			dErrors.Wrap(err, dErrors.CodeBackendContract, "invalid start onboarding payload"),
			dErrors.CodeOnboardingStart, "failed to start onboarding")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Identity.IsZero() {
		// A concurrent start won; keep the first identity.
		return s.state.Identity, resp, nil
	}
	s.state = Snapshot{Identity: next, Mobile: mobile}
	s.logger.InfoContext(ctx, "identity initialized",
		"user_id", next.UserID,
		"user_type", next.UserType,
	)
	return next, resp, nil
}

func identityFromStart(resp models.CanonicalResponse) (models.Identity, error) {
	userID, ok := resp.Int64("userId")
	if !ok || userID <= 0 {
		return models.Identity{}, fmt.Errorf("userId must be a positive integer")
	}
	raw, _ := resp.String("userType")
	userType, ok := models.ParseUserType(raw)
	if !ok || userType == models.UserTypeAnon {
		return models.Identity{}, fmt.Errorf("userType %q is not TEMP or PARTNER", raw)
	}
	return models.Identity{UserID: userID, UserType: userType}, nil
}

// PromoteToPartner applies a successful mobile OTP verification. The payload
// must carry a token and a userId or partnerId. The userType becomes PARTNER
// unconditionally and a differing userId from the backend replaces the held one.
func (s *Store) PromoteToPartner(ctx context.Context, resp models.CanonicalResponse) (models.Identity, error) {
	if !resp.OK {
		return models.Identity{}, dErrors.New(dErrors.CodeInternal, "cannot promote from a negative verification")
	}
	token, _ := resp.String("token")
	if token == "" {
		return models.Identity{}, dErrors.New(dErrors.CodeBackendContract, "verification payload has no token")
	}
	if raw, present := resp.String("userType"); present {
		if ut, ok := models.ParseUserType(raw); !ok || ut != models.UserTypePartner {
			return models.Identity{}, dErrors.New(dErrors.CodeBackendContract, fmt.Sprintf("verification returned userType %q", raw))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Identity.IsZero() {
		return models.Identity{}, dErrors.New(dErrors.CodeNotInitialized, "identity not initialized")
	}

	userID := s.state.Identity.UserID
	if id, ok := resp.Int64("userId"); ok && id > 0 {
		userID = id
	} else if id, ok := resp.Int64("partnerId"); ok && id > 0 {
		userID = id
	}
	if userID != s.state.Identity.UserID {
		s.logger.WarnContext(ctx, "backend replaced user id on promotion",
			"previous_user_id", s.state.Identity.UserID,
			"user_id", userID,
		)
	}

	s.state.Identity = models.Identity{UserID: userID, UserType: models.UserTypePartner}
	s.state.Token = token
	s.logger.InfoContext(ctx, "identity promoted", "user_id", userID)
	return s.state.Identity, nil
}

// Current returns the held identity.
func (s *Store) Current() (models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Identity.IsZero() {
		return models.Identity{}, dErrors.New(dErrors.CodeNotInitialized, "identity not initialized")
	}
	return s.state.Identity, nil
}

// Mobile returns the number the session was started with.
func (s *Store) Mobile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Mobile
}

// Caller returns the identity to make a request as. The token is dropped once
// its exp claim has passed; opaque tokens without claims are passed through.
func (s *Store) Caller(ctx context.Context, now time.Time) (models.Caller, error) {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()
	if state.Identity.IsZero() {
		return models.Caller{}, dErrors.New(dErrors.CodeNotInitialized, "identity not initialized")
	}
	caller := models.Caller{Identity: state.Identity, Token: state.Token}
	if caller.Token != "" && tokenExpired(caller.Token, now) {
		s.logger.WarnContext(ctx, "held credential expired, sending request without it",
			"user_id", state.Identity.UserID,
		)
		caller.Token = ""
	}
	return caller, nil
}

// Guard rejects a step reply that names a different user than the one held.
func (s *Store) Guard(resp models.CanonicalResponse) error {
	id, ok := resp.Int64("userId")
	if !ok {
		return nil
	}
	current, err := s.Current()
	if err != nil {
		return err
	}
	if id != current.UserID {
		return dErrors.New(dErrors.CodeIdentityMismatch, "reply refers to a different user")
	}
	return nil
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Restore loads a persisted snapshot. It refuses to move userType backwards
// relative to what the store already holds.
func (s *Store) Restore(snap Snapshot) error {
	if snap.Identity.IsZero() {
		return nil
	}
	if _, ok := models.ParseUserType(string(snap.Identity.UserType)); !ok {
		return dErrors.New(dErrors.CodeInternal, fmt.Sprintf("persisted userType %q is unknown", snap.Identity.UserType))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Identity.UserType.CanAdvanceTo(snap.Identity.UserType) {
		return dErrors.New(dErrors.CodeIdentityMismatch, "persisted identity would regress userType")
	}
	s.state = snap
	return nil
}

var errNoExpiry = errors.New("token carries no expiry")

func tokenExpired(token string, now time.Time) bool {
	exp, err := tokenExpiry(token)
	if err != nil {
		return false
	}
	return !now.Before(exp)
}

func tokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, errNoExpiry
	}
	return exp.Time, nil
}
