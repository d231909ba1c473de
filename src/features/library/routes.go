package library

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the library feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	app.Post("/artists", handler.AddArtist)

	app.Post("/albums", handler.AddAlbum)
	app.Put("/albums/:id", handler.UpdateAlbum)
	app.Delete("/albums/:id", handler.DeleteAlbum)

	app.Post("/tracks", handler.AddTrack)
	app.Put("/tracks/:id", handler.UpdateTrack)
	app.Delete("/tracks/:id", handler.DeleteTrack)

	app.Post("/users", handler.CreateUser)
	app.Get("/users/:id", handler.GetUser)
	app.Put("/users/:id", handler.UpdateUser)
	app.Delete("/users/:id", handler.DeleteUser)
}
