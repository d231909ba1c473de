package history

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the history feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	app.Post("/history", handler.RecordPlay)
	app.Get("/users/:id/history", handler.GetUserHistory)
}
