package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"bullet-ai/pkg/logger"
	"bullet-ai/pkg/utils"
)

func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		}

		if code >= fiber.StatusInternalServerError {
			logger.ErrorContext(c.UserContext(), "Unhandled error", "path", c.Path(), "error", err)
		} else {
			logger.WarnContext(c.UserContext(), "Request error", "path", c.Path(), "status", code, "error", err)
		}

		return utils.ErrorFromStatus(c, code, message)
	}
}
