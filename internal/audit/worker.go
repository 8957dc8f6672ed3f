package audit

import (
	"context"
	"log/slog"
)

// AsyncPublisher queues events for a Worker so a slow sink never blocks a
// request. When the queue is full the event is dropped and logged.
type AsyncPublisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewAsyncPublisher(buffer int, logger *slog.Logger) *AsyncPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncPublisher{inbox: make(chan Event, buffer), logger: logger}
}

func (p *AsyncPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = nowUTC()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit queue full, dropping event", "event", event.Action)
	}
	return nil
}

// Inbox exposes the queue to a Worker.
func (p *AsyncPublisher) Inbox() <-chan Event {
	return p.inbox
}

// Worker consumes audit events from a channel and appends them to a store.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until ctx is done. Append failures are logged and the
// worker keeps going.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.WarnContext(ctx, "audit append failed", "event", event.Action, "error", err)
			}
		}
	}
}
