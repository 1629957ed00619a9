package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard deduplicates webhook deliveries. Callers check AlreadyProcessed
// on entry and call MarkProcessed only after the delivery was fully
// applied, so a delivery that failed mid-way stays retryable. The guard
// fails open: when Redis is unreachable every delivery looks fresh, and
// the status-guarded database transition still keeps reconciliation
// idempotent.
type Guard struct {
	redis *redis.Client
	ttl   time.Duration
}

func New(redisClient *redis.Client, ttl time.Duration) *Guard {
	return &Guard{redis: redisClient, ttl: ttl}
}

func (g *Guard) AlreadyProcessed(ctx context.Context, key string) bool {
	if g == nil || g.redis == nil {
		return false
	}

	n, err := g.redis.Exists(ctx, g.key(key)).Result()
	if err != nil {
		slog.Warn("idempotency guard unavailable", "key", key, "error", err)
		return false
	}
	return n > 0
}

func (g *Guard) MarkProcessed(ctx context.Context, key string) {
	if g == nil || g.redis == nil {
		return
	}

	if err := g.redis.Set(ctx, g.key(key), 1, g.ttl).Err(); err != nil {
		slog.Warn("idempotency guard mark failed", "key", key, "error", err)
	}
}

func (g *Guard) key(key string) string {
	return fmt.Sprintf("callback:%s", key)
}
