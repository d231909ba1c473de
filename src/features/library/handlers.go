package library

import (
	"github.com/gofiber/fiber/v2"

	"vibecast/src/catalog"
)

// Handler is the handler for the library feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the library feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type artistRequest struct {
	Name string `json:"name"`
}

type userRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AddArtist handles artist creation.
func (h *Handler) AddArtist(c *fiber.Ctx) error {
	var req artistRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	artist, err := h.service.AddArtist(c.Context(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(artist)
}

// AddAlbum handles album creation.
func (h *Handler) AddAlbum(c *fiber.Ctx) error {
	var album catalog.Album
	if err := c.BodyParser(&album); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	created, err := h.service.AddAlbum(c.Context(), &album)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateAlbum handles album updates.
func (h *Handler) UpdateAlbum(c *fiber.Ctx) error {
	var album catalog.Album
	if err := c.BodyParser(&album); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}
	album.ID = c.Params("id")

	if err := h.service.UpdateAlbum(c.Context(), &album); err != nil {
		return err
	}
	return c.JSON(album)
}

// DeleteAlbum handles album deletion.
func (h *Handler) DeleteAlbum(c *fiber.Ctx) error {
	if err := h.service.DeleteAlbum(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddTrack handles track creation.
func (h *Handler) AddTrack(c *fiber.Ctx) error {
	var track catalog.Track
	if err := c.BodyParser(&track); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	created, err := h.service.AddTrack(c.Context(), &track)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateTrack handles track updates.
func (h *Handler) UpdateTrack(c *fiber.Ctx) error {
	var track catalog.Track
	if err := c.BodyParser(&track); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}
	track.ID = c.Params("id")

	if err := h.service.UpdateTrack(c.Context(), &track); err != nil {
		return err
	}
	return c.JSON(track)
}

// DeleteTrack handles track deletion.
func (h *Handler) DeleteTrack(c *fiber.Ctx) error {
	if err := h.service.DeleteTrack(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateUser handles user registration.
func (h *Handler) CreateUser(c *fiber.Ctx) error {
	var req userRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	user, err := h.service.CreateUser(c.Context(), req.Name, req.Email)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// GetUser returns a single user.
func (h *Handler) GetUser(c *fiber.Ctx) error {
	user, err := h.service.GetUser(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// UpdateUser handles user profile updates.
func (h *Handler) UpdateUser(c *fiber.Ctx) error {
	var user catalog.User
	if err := c.BodyParser(&user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}
	user.ID = c.Params("id")

	if err := h.service.UpdateUser(c.Context(), &user); err != nil {
		return err
	}
	return c.JSON(user)
}

// DeleteUser handles user deletion.
func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	if err := h.service.DeleteUser(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
