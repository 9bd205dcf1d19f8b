package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// RegisterRoutes registers the routes for the metrics feature.
func RegisterRoutes(app *fiber.App, m *Metrics) {
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
}
