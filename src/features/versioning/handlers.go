package versioning

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the versioning feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the versioning feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetVersions returns recent versions, optionally filtered by source path.
func (h *Handler) GetVersions(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	var versions []Version
	if source := c.Query("source"); source != "" {
		versions, err = h.service.BySource(c.Context(), source, limit)
	} else {
		versions, err = h.service.Recent(c.Context(), limit)
	}
	if err != nil {
		if errors.Is(err, ErrCatalogDisabled) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		slog.Error("Failed to query version catalog", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if versions == nil {
		versions = []Version{}
	}
	return c.JSON(versions)
}
