package middleware

import (
	"time"

	"wall/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// ContextMiddleware propagates the request ID and authenticated user ID into
// the request's user context so downstream logging picks them up.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		rid, ok := c.Locals("requestid").(string)
		if !ok || rid == "" {
			rid = observability.NewCorrelationID()
		}
		ctx = observability.WithRequestID(ctx, rid)

		if uid := UserID(c); uid != "" {
			ctx = observability.WithUserID(ctx, uid)
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger logs one line per request with method, path, status, and
// latency.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		observability.Logger.InfoContext(c.UserContext(), "request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start),
			"ip", c.IP(),
		)
		return err
	}
}
