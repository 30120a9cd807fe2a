// Package audit publishes complaint lifecycle events to an external sink.
// Publishing is fire-and-forget: the canonical state change is the ledger
// append, and a lost event must never fail a request.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Sink persists or forwards events. Implementations: Kafka (production),
// in-memory (tests and dev).
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher buffers events in a channel consumed by a background worker.
// When the buffer is full the event is dropped and counted, never blocked on.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(logger *slog.Logger, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Emit enqueues an event. Never blocks; drops on a full buffer.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", string(event.Action),
			"complaint_id", event.ComplaintID.String(),
		)
	}
}

// Inbox exposes the event channel for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
