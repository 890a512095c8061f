package routes

import (
	"github.com/gofiber/fiber/v2"

	"bullet-ai/interfaces/api/handlers"
)

// SetupMonitoringRoutes sets up the monitoring routes
// GET /api/v1/monitoring/health - dependency health
// GET /api/v1/monitoring/stream - JetStream change stream status
func SetupMonitoringRoutes(app *fiber.App, h *handlers.Handlers) {
	monitoring := app.Group("/api/v1/monitoring")

	monitoring.Get("/health", h.MonitoringHandler.HealthCheck)
	monitoring.Get("/stream", h.MonitoringHandler.GetStreamStatus)
}
