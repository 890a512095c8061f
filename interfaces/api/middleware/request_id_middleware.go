package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"bullet-ai/pkg/logger"
)

const (
	RequestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 64
)

// RequestIDMiddleware ใช้ X-Request-ID ของ client ถ้าสั้นพอ ไม่งั้นสร้างใหม่
// id ถูกส่งกลับใน header และติดไปกับทุก log ของ request
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		c.Set(RequestIDHeader, requestID)
		c.SetUserContext(logger.ContextWithRequestID(c.UserContext(), requestID))
		c.Locals("request_id", requestID)

		return c.Next()
	}
}
