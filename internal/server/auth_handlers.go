package server

import (
	"errors"
	"regexp"

	"wall/internal/middleware"
	"wall/internal/models"
	"wall/internal/session"
	"wall/internal/view"

	"github.com/gofiber/fiber/v2"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Signup handles POST /api/auth/signup.
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email, password, and full name are required"))
	}
	if !emailRegex.MatchString(req.Email) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid email address"))
	}

	sess, user, err := s.session.Register(c.UserContext(), req.Email, req.Password, req.FullName)
	if errors.Is(err, session.ErrConfirmationPending) {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"message": "Confirmation email sent",
			"user":    user,
		})
	}
	if err != nil {
		return respondError(c, err)
	}

	s.feed.Trigger(view.SessionEstablished)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"session": sess,
		"user":    user,
	})
}

// Login handles POST /api/auth/login.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}

	sess, err := s.session.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	s.feed.Trigger(view.SessionEstablished)

	return c.JSON(fiber.Map{"session": sess})
}

// Logout handles POST /api/auth/logout.
func (s *Server) Logout(c *fiber.Ctx) error {
	token, _ := c.Locals("accessToken").(string)
	if err := s.session.Logout(c.UserContext(), token); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/auth/me. Anonymous requests get a null user, not an
// error.
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.session.CurrentUser(middleware.BearerToken(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}
