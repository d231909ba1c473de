package browse

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"vibecast/src/catalog"
)

// Handler is the handler for the browse feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the browse feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// listParams pulls the shared pagination/filter/sort parameters from the
// query string.
func listParams(c *fiber.Ctx) ListParams {
	return ListParams{
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", catalog.DefaultPageLimit),
		Search:     c.Query("search"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
		Filters:    map[string]string{},
		SetFilters: map[string][]string{},
	}
}

func addFilter(p *ListParams, field, value string) {
	if value != "" {
		p.Filters[field] = value
	}
}

func addSetFilter(p *ListParams, field, csv string) {
	if csv == "" {
		return
	}
	values := []string{}
	for _, v := range strings.Split(csv, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) > 0 {
		p.SetFilters[field] = values
	}
}

// GetAlbums is the handler for listing albums.
func (h *Handler) GetAlbums(c *fiber.Ctx) error {
	slog.Debug("GetAlbums handler called")
	p := listParams(c)
	addFilter(&p, "type", c.Query("type"))
	addFilter(&p, "artist_id", c.Query("artistId"))

	result, err := h.service.ListAlbums(c.Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// GetTracks is the handler for listing tracks.
func (h *Handler) GetTracks(c *fiber.Ctx) error {
	slog.Debug("GetTracks handler called")
	p := listParams(c)
	addFilter(&p, "artist_id", c.Query("artistId"))
	addFilter(&p, "album_id", c.Query("albumId"))
	addSetFilter(&p, "genre", c.Query("genres"))

	result, err := h.service.ListTracks(c.Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// GetPlaylists is the handler for listing playlists.
func (h *Handler) GetPlaylists(c *fiber.Ctx) error {
	slog.Debug("GetPlaylists handler called")
	p := listParams(c)
	addFilter(&p, "kind", c.Query("kind"))
	addFilter(&p, "owner_user_id", c.Query("ownerUserId"))

	result, err := h.service.ListPlaylists(c.Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// GetUsers is the handler for listing users.
func (h *Handler) GetUsers(c *fiber.Ctx) error {
	slog.Debug("GetUsers handler called")
	p := listParams(c)
	addFilter(&p, "active", c.Query("active"))

	result, err := h.service.ListUsers(c.Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// GetAlbum is the handler for a single album.
func (h *Handler) GetAlbum(c *fiber.Ctx) error {
	album, err := h.service.GetAlbum(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(album)
}

// GetTrack is the handler for a single track.
func (h *Handler) GetTrack(c *fiber.Ctx) error {
	track, err := h.service.GetTrack(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(track)
}

// Search is the handler for cross-entity search.
func (h *Handler) Search(c *fiber.Ctx) error {
	slog.Debug("Search handler called", "q", c.Query("q"))
	result, err := h.service.Search(c.Context(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(result)
}
