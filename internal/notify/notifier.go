// Package notify is the push-notification collaborator. Dispatch is
// best-effort: a failed send is logged and swallowed, never surfaced to the
// caller, because the status change it announces is already durably recorded.
package notify

import (
	"context"
	"errors"
)

// ErrUnregisteredToken signals the device token is no longer valid and should
// be cleared from the citizen record. This is the one dispatcher failure the
// lifecycle engine reacts to.
var ErrUnregisteredToken = errors.New("push token unregistered")

//go:generate mockgen -source=notifier.go -destination=mocks/mocks.go -package=mocks

// Dispatcher delivers a push notification to a single device token.
type Dispatcher interface {
	SendToToken(ctx context.Context, token, title, body string, data map[string]string) error
}
