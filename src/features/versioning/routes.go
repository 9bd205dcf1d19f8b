package versioning

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the versioning feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	app.Get("/api/versions", handler.GetVersions)
}
