package server

import (
	"wall/internal/models"
	"wall/internal/view"

	"github.com/gofiber/fiber/v2"
)

// profileFields whitelists the columns a partial profile update may touch.
var profileFields = map[string]struct{}{
	"username":   {},
	"full_name":  {},
	"avatar_url": {},
	"bio":        {},
	"location":   {},
	"networks":   {},
}

// GetProfile handles GET /api/profiles/:id.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid profile ID"))
	}

	pv := view.NewProfileView(s.session)
	if err := pv.Load(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"profile": pv.Profile()})
}

// UpdateProfile handles PATCH /api/profiles/:id. Ownership is enforced by the
// platform's row-level rules, not here.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid profile ID"))
	}

	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	fields := make(map[string]interface{}, len(req))
	for k, v := range req {
		if _, ok := profileFields[k]; ok {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No updatable fields in request"))
	}

	profile, err := s.session.UpdateProfile(c.UserContext(), id, fields)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"profile": profile})
}
