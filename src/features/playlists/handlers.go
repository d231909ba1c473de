package playlists

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the playlists feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the playlists feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type playlistRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OwnerUserID *string `json:"ownerUserId"`
}

type tracksRequest struct {
	TrackIDs []string `json:"trackIds"`
}

// CreatePlaylist handles playlist creation.
func (h *Handler) CreatePlaylist(c *fiber.Ctx) error {
	var req playlistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	playlist, err := h.service.CreatePlaylist(c.Context(), req.Name, req.Description, req.OwnerUserID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(playlist)
}

// GetPlaylist returns a playlist with its tracks.
func (h *Handler) GetPlaylist(c *fiber.Ctx) error {
	detail, err := h.service.GetPlaylist(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

// UpdatePlaylist handles playlist metadata updates.
func (h *Handler) UpdatePlaylist(c *fiber.Ctx) error {
	var req playlistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	playlist, err := h.service.UpdatePlaylist(c.Context(), c.Params("id"), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.JSON(playlist)
}

// DeletePlaylist handles playlist deletion.
func (h *Handler) DeletePlaylist(c *fiber.Ctx) error {
	if err := h.service.DeletePlaylist(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddTrack adds a single track to a playlist.
func (h *Handler) AddTrack(c *fiber.Ctx) error {
	if err := h.service.AddTrack(c.Context(), c.Params("id"), c.Params("trackId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddTracks adds a batch of tracks to a playlist.
func (h *Handler) AddTracks(c *fiber.Ctx) error {
	var req tracksRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	if err := h.service.AddTracks(c.Context(), c.Params("id"), req.TrackIDs); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveTrack removes a single track from a playlist.
func (h *Handler) RemoveTrack(c *fiber.Ctx) error {
	if err := h.service.RemoveTrack(c.Context(), c.Params("id"), c.Params("trackId")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveTrackEverywhere removes a track from all playlists containing it.
func (h *Handler) RemoveTrackEverywhere(c *fiber.Ctx) error {
	removed, err := h.service.RemoveTrackEverywhere(c.Context(), c.Params("trackId"))
	if err != nil {
		return err
	}
	slog.Debug("RemoveTrackEverywhere handler completed", "removed", removed)
	return c.JSON(fiber.Map{"removed": removed})
}
