package history

import (
	"github.com/gofiber/fiber/v2"

	"vibecast/src/catalog"
)

// Handler is the handler for the history feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the history feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type playRequest struct {
	UserID  string `json:"userId"`
	TrackID string `json:"trackId"`
}

// RecordPlay registers a play event.
func (h *Handler) RecordPlay(c *fiber.Ctx) error {
	var req playRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	if err := h.service.RecordPlay(c.Context(), req.UserID, req.TrackID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetUserHistory returns one page of a user's play history.
func (h *Handler) GetUserHistory(c *fiber.Ctx) error {
	page := catalog.PageRequest{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", catalog.DefaultPageLimit),
	}

	result, err := h.service.ListForUser(c.Context(), c.Params("id"), page)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
