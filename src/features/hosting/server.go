package hosting

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"

	"versio/src/features/config"
	"versio/src/features/metrics"
	"versio/src/features/versioning"
	"versio/src/features/watching"
)

// Server is the embedded status server: a dashboard, the JSON status API and
// the prometheus endpoint. Entirely optional; the watch engine runs the same
// without it.
type Server struct {
	app  *fiber.App
	port uint32
}

// NewServer creates a new status server.
func NewServer(cfg *config.Manager, watchService *watching.Service, versionService *versioning.Service, m *metrics.Metrics) *Server {
	engine := html.New("./views", ".html")

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("Internal Server Error", "error", err)
			return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
		},
		AppName:               "Versio",
		DisableStartupMessage: true,
		EnablePrintRoutes:     cfg.Get().Server.PrintRoutes,
	})

	app.Use(LogRequestsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Render("index", fiber.Map{
			"Folders": cfg.Get().Folders,
			"Pending": watchService.Pending(),
		})
	})

	watching.RegisterRoutes(app, watchService, cfg)
	versioning.RegisterRoutes(app, versionService)
	config.RegisterRoutes(app, cfg)
	metrics.RegisterRoutes(app, m)

	return &Server{app: app, port: cfg.Get().Server.Port}
}

// Start starts the status server.
func (s *Server) Start() error {
	return s.app.Listen(":" + fmt.Sprint(s.port))
}

// Shutdown gracefully shuts down the status server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
