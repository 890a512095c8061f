package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"bullet-ai/interfaces/api/handlers"
	"bullet-ai/interfaces/api/middleware"
)

// SetupAIRoutes - /api/ai ไม่บังคับ login (client ส่ง apiKey ของตัวเองได้)
func SetupAIRoutes(app *fiber.App, h *handlers.Handlers) {
	chain := []fiber.Handler{middleware.Optional(h.JWTSecret, h.JWTAudience)}
	if h.AIRateLimit > 0 {
		chain = append(chain, limiter.New(limiter.Config{
			Max:        h.AIRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
			},
		}))
	}
	chain = append(chain, h.AIHandler.Chat)
	app.Post("/api/ai", chain...)
}
