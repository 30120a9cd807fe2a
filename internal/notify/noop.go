package notify

import (
	"context"
	"log/slog"
)

// LogDispatcher logs notifications instead of sending them. Used in
// development when no push gateway is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendToToken(ctx context.Context, token, title, body string, data map[string]string) error {
	d.logger.InfoContext(ctx, "push notification (not sent, no gateway configured)",
		"title", title,
		"body", body,
	)
	return nil
}
