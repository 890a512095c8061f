package routes

import (
	"github.com/gofiber/fiber/v2"

	"bullet-ai/interfaces/api/handlers"
)

func SetupRoutes(app *fiber.App, h *handlers.Handlers, appName string) {
	SetupHealthRoutes(app, appName)
	SetupMonitoringRoutes(app, h)

	// AI proxy (path เดิมของ client)
	SetupAIRoutes(app, h)

	api := app.Group("/api/v1")
	SetupTaskRoutes(api, h)

	SetupWebSocketRoutes(app, h)
}
