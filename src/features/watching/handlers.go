package watching

import (
	"github.com/gofiber/fiber/v2"

	"versio/src/features/config"
)

// Handler is the handler for the watching feature.
type Handler struct {
	service       *Service
	configManager *config.Manager
}

// NewHandler creates a new handler for the watching feature.
func NewHandler(service *Service, configManager *config.Manager) *Handler {
	return &Handler{service: service, configManager: configManager}
}

// GetStatus reports the watched folders and the pending-change table.
func (h *Handler) GetStatus(c *fiber.Ctx) error {
	cfg := h.configManager.Get()

	pending := h.service.PendingChanges()
	changes := make([]fiber.Map, 0, len(pending))
	for _, pc := range pending {
		changes = append(changes, fiber.Map{
			"path":       pc.Path,
			"first_seen": pc.FirstSeen,
			"last_seen":  pc.LastSeen,
		})
	}

	return c.JSON(fiber.Map{
		"folders": cfg.Folders,
		"pending": changes,
	})
}
