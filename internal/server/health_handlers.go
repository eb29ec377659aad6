package server

import (
	"github.com/gofiber/fiber/v2"
)

// LivenessCheck handles GET /health/live.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ReadinessCheck handles GET /health/ready. Ready means the platform's
// database answers; the change stream is optional and reported separately.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unavailable",
			"reason": "database unreachable",
		})
	}

	changeStream := "ok"
	if s.redis == nil {
		changeStream = "unavailable"
	} else if err := s.redis.Ping(c.UserContext()).Err(); err != nil {
		changeStream = "unavailable"
	}

	return c.JSON(fiber.Map{
		"status":        "ok",
		"change_stream": changeStream,
	})
}
