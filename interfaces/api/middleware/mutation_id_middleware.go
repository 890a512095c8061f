package middleware

import (
	"github.com/gofiber/fiber/v2"

	"bullet-ai/pkg/logger"
	"bullet-ai/pkg/utils"
)

const maxMutationIDLength = 128

// MutationIDMiddleware นำ X-Mutation-ID ของ client ใส่ context
// เพื่อให้ change ที่ publish ออกไปพกกลับมาให้ client ตัด echo ของตัวเอง
func MutationIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := utils.TruncateRunes(c.Get(utils.MutationIDHeader), maxMutationIDLength)
		if id == "" {
			return c.Next()
		}

		ctx := utils.WithMutationID(c.UserContext(), id)
		c.SetUserContext(logger.ContextWithMutationID(ctx, id))
		c.Set(utils.MutationIDHeader, id)
		return c.Next()
	}
}
