package server

import (
	"io"
	"strings"

	"wall/internal/middleware"
	"wall/internal/models"
	"wall/internal/posts"
	"wall/internal/view"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	p := parsePagination(c, posts.DefaultLimit)

	page, err := s.posts.List(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": page})
}

// CreatePost handles POST /api/posts. The body is multipart form data with a
// "content" field and an optional "image" file; the request runs the composer
// flow (truncate, upload, insert, compensate).
func (s *Server) CreatePost(c *fiber.Ctx) error {
	content := c.FormValue("content")

	composer := view.NewComposer(s.posts, s.blobs, s.feed.Trigger)
	composer.SetContent(content)

	if file, err := c.FormFile("image"); err == nil && file != nil {
		f, err := file.Open()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read image"))
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read image"))
		}
		if err := composer.Attach(file.Filename, data); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest, err)
		}
	}

	if strings.TrimSpace(content) == "" && composer.AttachmentName() == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Content or image required"))
	}

	if err := composer.Submit(c.UserContext(), middleware.UserID(c)); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "created"})
}

// UpdatePost handles PATCH /api/posts/:id. Ownership is enforced by the
// platform's row-level rules; this client adds no check of its own.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid post ID"))
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if len([]rune(req.Content)) > models.MaxPostLength {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Content exceeds 280 characters"))
	}

	post, err := s.posts.Update(c.UserContext(), uint(id), req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"post": post})
}

// DeletePost handles DELETE /api/posts/:id.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid post ID"))
	}

	if err := s.posts.Delete(c.UserContext(), uint(id)); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
