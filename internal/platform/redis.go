package platform

import (
	"context"
	"strings"
	"time"

	"wall/internal/observability"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the platform's Redis endpoint. A nil return means
// the change-notification stream is unavailable; callers degrade gracefully.
func NewRedisClient(addr string) *redis.Client {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			observability.Logger.Warn("invalid REDIS_URL, continuing without change stream",
				"addr", addr, "error", err)
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		observability.Logger.Warn("Redis unreachable, continuing without change stream", "error", err)
		return nil
	}

	observability.Logger.Info("Redis connected")
	return client
}
