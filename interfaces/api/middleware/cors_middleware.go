package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"bullet-ai/pkg/utils"
)

// CorsMiddleware - allowOrigins คั่นด้วย comma (CORS_ALLOWED_ORIGINS)
func CorsMiddleware(allowOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,HEAD",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Requested-With," + RequestIDHeader + "," + utils.MutationIDHeader,
		ExposeHeaders:    "Content-Length,Content-Type," + RequestIDHeader + "," + utils.MutationIDHeader,
		AllowCredentials: true,
	})
}
