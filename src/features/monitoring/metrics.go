// Package monitoring exposes prometheus metrics for the service. Collectors
// owned by other packages register themselves through promauto; this package
// adds the request counter and serves the exposition endpoint.
package monitoring

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vibecast_http_requests_total",
	Help: "HTTP requests by method, route and status code.",
}, []string{"method", "route", "status"})

// RequestCounter counts every handled request. Register before the routes
// so the post-handler route path is populated.
func RequestCounter() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		httpRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		return err
	}
}

// RegisterRoutes mounts the prometheus exposition endpoint.
func RegisterRoutes(app *fiber.App) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
