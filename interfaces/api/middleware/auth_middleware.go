package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"bullet-ai/pkg/logger"
	"bullet-ai/pkg/utils"
)

// AccessTokenQuery - browser WebSocket ส่ง header ไม่ได้ จึงรับ token ทาง query
const AccessTokenQuery = "access_token"

// Protected ตรวจ JWT ของ auth provider แล้วใส่ user ลง locals
func Protected(jwtSecret, audience string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := utils.ExtractTokenFromHeader(c.Get("Authorization"))
		if token == "" {
			token = c.Query(AccessTokenQuery)
		}
		if token == "" {
			return utils.UnauthorizedResponse(c, "Missing authorization header")
		}

		userCtx, err := utils.ValidateTokenStringToUUID(token, jwtSecret, audience)
		if err != nil {
			logger.WarnContext(c.UserContext(), "Token validation failed", "error", err)
			switch {
			case errors.Is(err, utils.ErrExpiredToken):
				return utils.UnauthorizedResponse(c, "Token has expired")
			case errors.Is(err, utils.ErrMissingToken):
				return utils.UnauthorizedResponse(c, "Missing token")
			default:
				return utils.UnauthorizedResponse(c, "Invalid token")
			}
		}

		c.Locals("user", userCtx)
		c.SetUserContext(logger.ContextWithUserID(c.UserContext(), userCtx.ID.String()))

		return c.Next()
	}
}

// Optional ไม่บังคับ login แต่ถ้ามี token ที่ถูกต้องจะใส่ user ลง locals
func Optional(jwtSecret, audience string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := utils.ExtractTokenFromHeader(c.Get("Authorization"))
		if token == "" {
			return c.Next()
		}

		userCtx, err := utils.ValidateTokenStringToUUID(token, jwtSecret, audience)
		if err != nil {
			return c.Next()
		}

		c.Locals("user", userCtx)
		c.SetUserContext(logger.ContextWithUserID(c.UserContext(), userCtx.ID.String()))
		return c.Next()
	}
}
