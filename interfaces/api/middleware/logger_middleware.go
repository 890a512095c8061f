package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"bullet-ai/pkg/logger"
)

// health check ถูกเรียกถี่ จึง log ที่ระดับ debug
var quietPaths = map[string]bool{
	"/health":                   true,
	"/api/v1/monitoring/health": true,
}

// LoggerMiddleware - access log หนึ่งบรรทัดต่อ request หลังตอบเสร็จ
// ต้องอยู่หลัง RequestIDMiddleware และวิ่งก่อน auth จึงอ่าน context ตอนจบ
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		logFunc := logger.InfoContext
		switch {
		case status >= 500:
			logFunc = logger.ErrorContext
		case status >= 400:
			logFunc = logger.WarnContext
		case quietPaths[c.Path()]:
			logFunc = logger.DebugContext
		}

		// /api/ai body ไม่ถูก log (อาจมี apiKey)
		logFunc(c.UserContext(), "Request completed",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start).String(),
			"bytes", len(c.Response().Body()),
			"ip", c.IP(),
		)

		return err
	}
}
