// Package steps is the durable per-record layer: what the user submitted and
// the canonical payload that proves server-side verification.
//
// Layout inside the session snapshot:
//
//	identity          identity.Snapshot
//	resume            the backend-reported step hint
//	step:<recordKey>  models.StepRecord
//
// A record locks once a positive payload is committed and is never rewritten
// afterwards.
package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"kycflow/internal/onboarding/identity"
	"kycflow/internal/onboarding/models"
	"kycflow/internal/onboarding/store"
	dErrors "kycflow/pkg/domain-errors"
	"kycflow/pkg/platform/sentinel"
)

const (
	identityKey   = "identity"
	resumeKey     = "resume"
	stepKeyPrefix = "step:"
)

func stepKey(key models.RecordKey) string {
	return stepKeyPrefix + string(key)
}

type Layer struct {
	kv        store.Store
	sessionID string
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Layer)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Layer) {
		l.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Layer) {
		l.now = now
	}
}

func New(kv store.Store, sessionID string, opts ...Option) *Layer {
	l := &Layer{
		kv:        kv,
		sessionID: sessionID,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the record for key whether or not it is locked, or nil.
func (l *Layer) Load(ctx context.Context, key models.RecordKey) (*models.StepRecord, error) {
	raw, err := l.kv.Get(ctx, l.sessionID, stepKey(key))
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load step record")
	}
	var record models.StepRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, dErrors.Wrap(errors.Join(err, sentinel.ErrCorrupt), dErrors.CodeInternal, "failed to decode step record")
	}
	return &record, nil
}

// LoadPrefill returns the record only when it carries a positive verified
// payload, which is when the step renders locked and skips the network.
func (l *Layer) LoadPrefill(ctx context.Context, key models.RecordKey) (*models.StepRecord, error) {
	record, err := l.Load(ctx, key)
	if err != nil || !record.Locked() {
		return nil, err
	}
	return record, nil
}

// LoadAll returns every step record in the session.
func (l *Layer) LoadAll(ctx context.Context) (map[models.RecordKey]*models.StepRecord, error) {
	all, err := l.kv.GetAll(ctx, l.sessionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session snapshot")
	}
	records := make(map[models.RecordKey]*models.StepRecord)
	for name, raw := range all {
		key, ok := strings.CutPrefix(name, stepKeyPrefix)
		if !ok {
			continue
		}
		recordKey := models.RecordKey(key)
		if !recordKey.Valid() {
			l.logger.WarnContext(ctx, "ignoring unknown step record", "key", key)
			continue
		}
		var record models.StepRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, dErrors.Wrap(errors.Join(err, sentinel.ErrCorrupt), dErrors.CodeInternal, "failed to decode step record")
		}
		records[recordKey] = &record
	}
	return records, nil
}

// Commit writes inputs and the canonical payload together. Only a positive
// payload locks; a negative one is kept for display and the record stays
// editable. Committing over a locked record is a conflict.
func (l *Layer) Commit(ctx context.Context, key models.RecordKey, inputs map[string]any, resp models.CanonicalResponse) (*models.StepRecord, error) {
	existing, err := l.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing.Locked() {
		return existing, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("%s is locked", key))
	}
	payload := resp
	payload.Payload = maps.Clone(resp.Payload)
	record := &models.StepRecord{
		Key:             key,
		Inputs:          maps.Clone(inputs),
		VerifiedPayload: &payload,
		UpdatedAt:       l.now(),
	}
	if err := l.put(ctx, stepKey(key), record); err != nil {
		return nil, err
	}
	return record, nil
}

// Draft stores in-progress inputs for prefill. Drafts never lock and are
// ignored once the record is locked. Any earlier negative payload is kept.
func (l *Layer) Draft(ctx context.Context, key models.RecordKey, inputs map[string]any) (*models.StepRecord, error) {
	existing, err := l.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing.Locked() {
		return existing, nil
	}
	record := &models.StepRecord{Key: key, Inputs: maps.Clone(inputs), UpdatedAt: l.now()}
	if existing != nil {
		record.VerifiedPayload = existing.VerifiedPayload
	}
	if err := l.put(ctx, stepKey(key), record); err != nil {
		return nil, err
	}
	return record, nil
}

func (l *Layer) SaveIdentity(ctx context.Context, snap identity.Snapshot) error {
	return l.put(ctx, identityKey, snap)
}

// LoadIdentity returns the persisted identity snapshot, or a zero snapshot.
func (l *Layer) LoadIdentity(ctx context.Context) (identity.Snapshot, error) {
	var snap identity.Snapshot
	found, err := l.get(ctx, identityKey, &snap)
	if err != nil || !found {
		return identity.Snapshot{}, err
	}
	return snap, nil
}

func (l *Layer) SaveResumeHint(ctx context.Context, step models.StepID) error {
	return l.put(ctx, resumeKey, step)
}

// LoadResumeHint returns the persisted hint, or "" when none was recorded.
func (l *Layer) LoadResumeHint(ctx context.Context) (models.StepID, error) {
	var step models.StepID
	found, err := l.get(ctx, resumeKey, &step)
	if err != nil || !found {
		return "", err
	}
	if _, ok := models.ParseStepID(string(step)); !ok {
		return "", nil
	}
	return step, nil
}

// Clear drops the whole session snapshot.
func (l *Layer) Clear(ctx context.Context) error {
	if err := l.kv.Delete(ctx, l.sessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear session")
	}
	return nil
}

func (l *Layer) put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode "+key)
	}
	if err := l.kv.Put(ctx, l.sessionID, key, raw); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist "+key)
	}
	return nil
}

func (l *Layer) get(ctx context.Context, key string, v any) (bool, error) {
	raw, err := l.kv.Get(ctx, l.sessionID, key)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+key)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, dErrors.Wrap(errors.Join(err, sentinel.ErrCorrupt), dErrors.CodeInternal, "failed to decode "+key)
	}
	return true, nil
}
