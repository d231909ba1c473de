package hosting

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"vibecast/src/catalog"
	"vibecast/src/features/browse"
	"vibecast/src/features/config"
	"vibecast/src/features/history"
	"vibecast/src/features/jobs"
	"vibecast/src/features/library"
	"vibecast/src/features/monitoring"
	"vibecast/src/features/playlists"
	"vibecast/src/features/rewind"
)

// Server is the HTTP server for the application.
type Server struct {
	app  *fiber.App
	port uint32
}

// Services groups the feature services the server mounts.
type Services struct {
	Browse    *browse.Service
	Library   *library.Service
	Playlists *playlists.Service
	History   *history.Service
	Rewind    *rewind.Service
	Jobs      *jobs.Service
}

// errorToStatus maps the domain sentinels onto HTTP status codes. Anything
// unrecognized is a 500 with a generic message; details stay in the log.
func errorToStatus(err error) (int, string) {
	var fiberErr *fiber.Error
	switch {
	case errors.Is(err, catalog.ErrValidation):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, catalog.ErrNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, catalog.ErrConflict):
		return fiber.StatusConflict, err.Error()
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	}
	return fiber.StatusInternalServerError, "internal server error"
}

// NewServer creates a new HTTP server.
func NewServer(cfg *config.Manager, services Services) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status, message := errorToStatus(err)
			if status == fiber.StatusInternalServerError {
				slog.Error("Internal Server Error", "path", c.Path(), "error", err)
			}
			return c.Status(status).JSON(fiber.Map{"message": message})
		},
		AppName:               "Vibecast",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
	})

	app.Use(monitoring.RequestCounter())
	app.Use(LogAllRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	browse.RegisterRoutes(app, services.Browse)
	library.RegisterRoutes(app, services.Library)
	playlists.RegisterRoutes(app, services.Playlists)
	history.RegisterRoutes(app, services.History)
	rewind.RegisterRoutes(app, services.Rewind, services.Jobs)
	jobs.RegisterRoutes(app, services.Jobs)
	config.RegisterRoutes(app, cfg)
	monitoring.RegisterRoutes(app)

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
