package middleware

import (
	"fmt"
	"time"

	"wall/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit enforces a fixed-window limit per client IP for a named action,
// backed by Redis. Without Redis the limiter passes everything through.
func RateLimit(rdb *redis.Client, max int, window time.Duration, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil {
			return c.Next()
		}

		key := fmt.Sprintf("ratelimit:%s:%s", name, c.IP())
		ctx := c.UserContext()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			observability.Logger.WarnContext(ctx, "rate limiter unavailable", "action", name, "error", err)
			return c.Next()
		}
		if count == 1 {
			rdb.Expire(ctx, key, window)
		}

		if count > int64(max) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		}

		return c.Next()
	}
}
