package browse

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the browse feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	app.Get("/albums", handler.GetAlbums)
	app.Get("/albums/:id", handler.GetAlbum)
	app.Get("/tracks", handler.GetTracks)
	app.Get("/tracks/:id", handler.GetTrack)
	app.Get("/playlists", handler.GetPlaylists)
	app.Get("/users", handler.GetUsers)
	app.Get("/search", handler.Search)
}
