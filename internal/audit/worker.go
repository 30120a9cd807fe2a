package audit

import (
	"context"
	"log/slog"
)

// Worker consumes events from the publisher's inbox and hands them to the
// sink. Sink failures are logged and the event dropped; the worker never
// stops on a bad event.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit sink append failed",
					"action", string(event.Action),
					"error", err,
				)
			}
		}
	}
}
