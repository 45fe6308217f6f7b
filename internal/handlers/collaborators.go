package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/middleware"
	"github.com/example/horeca/internal/services"
)

// AIHandler forwards drafting requests to the text generation service.
type AIHandler struct {
	ai *services.AIService
}

func NewAIHandler(ai *services.AIService) *AIHandler {
	return &AIHandler{ai: ai}
}

// GenerateDescription drafts one form field. Failures are advisory; the
// editor keeps its state.
func (h *AIHandler) GenerateDescription(c *fiber.Ctx) error {
	var req services.AIRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	text, err := h.ai.Generate(c.UserContext(), clientKey(c), req)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"field": req.Field, "text": text})
}

// clientKey scopes cooldowns to the admin, or to the caller IP without one.
func clientKey(c *fiber.Ctx) string {
	if name := middleware.CurrentAdmin(c); name != "" {
		return name
	}
	return c.IP()
}

// UploadHandler stores assets through the configured uploader.
type UploadHandler struct {
	uploader services.Uploader
}

func NewUploadHandler(uploader services.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return apperr.Validation("file is required")
	}
	url, err := h.uploader.Save(c.UserContext(), file)
	if err != nil {
		return err
	}
	return created(c, fiber.Map{"url": url})
}
