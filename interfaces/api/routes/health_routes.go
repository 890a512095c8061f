package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SetupHealthRoutes - liveness check แบบไม่แตะ dependency
// ตรวจ DB / Redis / NATS อยู่ที่ /api/v1/monitoring/health
func SetupHealthRoutes(app *fiber.App, appName string) {
	started := time.Now()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
			"uptime":  time.Since(started).Round(time.Second).String(),
		})
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": appName,
			"endpoints": fiber.Map{
				"tasks":     "/api/v1/tasks",
				"views":     "/api/v1/tasks/views",
				"plans":     "/api/v1/plans/accept",
				"assistant": "/api/ai",
				"realtime":  "/ws",
				"readiness": "/api/v1/monitoring/health",
			},
		})
	})
}
