package audit

import (
	"context"
	"log/slog"
	"time"

	"kycflow/pkg/requestcontext"
)

// Store is an append-only event sink.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher stamps events and hands them to a Store so tests can swap sinks.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.SessionID == "" {
		event.SessionID = requestcontext.SessionID(ctx)
	}
	return p.store.Append(ctx, event)
}

// Emitter is anything events can be published to.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Log writes the event to the structured logger and publishes it. Publishing
// failures are logged and never returned: audit must not fail a user action.
func Log(ctx context.Context, logger *slog.Logger, emitter Emitter, event Event) {
	if logger != nil {
		logger.InfoContext(ctx, string(event.Action),
			"log_type", "audit",
			"session_id", event.SessionID,
			"user_id", event.UserID,
			"step", event.Step,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if emitter == nil {
		return
	}
	if err := emitter.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", event.Action, "error", err)
	}
}

// nowUTC is used by sinks that stamp events outside a request.
func nowUTC() time.Time {
	return time.Now().UTC()
}
