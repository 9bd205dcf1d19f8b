package watching

import (
	"github.com/gofiber/fiber/v2"

	"versio/src/features/config"
)

// RegisterRoutes registers the routes for the watching feature.
func RegisterRoutes(app *fiber.App, service *Service, configManager *config.Manager) {
	handler := NewHandler(service, configManager)

	app.Get("/api/status", handler.GetStatus)
}
