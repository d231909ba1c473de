package rewind

import (
	"github.com/gofiber/fiber/v2"

	"vibecast/src/features/jobs"
)

// RegisterRoutes registers the routes for the rewind feature.
func RegisterRoutes(app *fiber.App, service *Service, jobService jobs.JobService) {
	handler := NewHandler(service, jobService)

	app.Post("/rewind/run", handler.Run)
	app.Get("/users/:id/rewind", handler.GetUserRewind)
}
