// Package cache invalidates the read-side complaint caches after a write.
// Invalidation is best-effort and must never block or fail the response; the
// ledger is the source of truth and caches only go stale, never wrong.
package cache

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	id "grievance/pkg/domain"
)

// Invalidator drops cached complaint views. InvalidateComplaint covers the
// list views too, so callers invalidating one complaint make a single call.
type Invalidator interface {
	InvalidateComplaint(ctx context.Context, complaintID id.ComplaintID)
	InvalidateLists(ctx context.Context)
}

// RedisInvalidator deletes complaint cache keys from Redis.
type RedisInvalidator struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisInvalidator(client *redis.Client, logger *slog.Logger) *RedisInvalidator {
	return &RedisInvalidator{client: client, logger: logger}
}

// InvalidateComplaint drops the detail view for one complaint and all list
// views that could include it. Errors are logged and swallowed.
func (i *RedisInvalidator) InvalidateComplaint(ctx context.Context, complaintID id.ComplaintID) {
	if err := i.client.Del(ctx, "complaint:"+complaintID.String()).Err(); err != nil {
		i.logger.WarnContext(ctx, "cache invalidation failed",
			"complaint_id", complaintID.String(),
			"error", err,
		)
	}
	i.InvalidateLists(ctx)
}

// InvalidateLists drops every cached complaint listing.
func (i *RedisInvalidator) InvalidateLists(ctx context.Context) {
	iter := i.client.Scan(ctx, 0, "complaints:list:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := i.client.Del(ctx, iter.Val()).Err(); err != nil {
			i.logger.WarnContext(ctx, "cache invalidation failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		i.logger.WarnContext(ctx, "cache scan failed", "error", err)
	}
}

// NoopInvalidator is used when Redis is not configured.
type NoopInvalidator struct{}

func (NoopInvalidator) InvalidateComplaint(context.Context, id.ComplaintID) {}
func (NoopInvalidator) InvalidateLists(context.Context)                     {}
