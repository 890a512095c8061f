package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullet-ai/pkg/logger"
	"bullet-ai/pkg/utils"
)

func TestRequestIDMiddlewareKeepsClientID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(logger.GetRequestID(c.UserContext()))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "req-123", resp.Header.Get(RequestIDHeader))
	body := make([]byte, 16)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, "req-123", string(body[:n]))
}

func TestRequestIDMiddlewareReplacesOversizedID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	resp, err := app.Test(req)
	require.NoError(t, err)

	got := resp.Header.Get(RequestIDHeader)
	assert.Len(t, got, 36)
}

func TestMutationIDMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(MutationIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(utils.MutationIDFromContext(c.UserContext()))
	})

	t.Run("echoes header into context", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(utils.MutationIDHeader, "m-1")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, "m-1", resp.Header.Get(utils.MutationIDHeader))
		body := make([]byte, 8)
		n, _ := resp.Body.Read(body)
		assert.Equal(t, "m-1", string(body[:n]))
	})

	t.Run("absent header leaves context empty", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Empty(t, resp.Header.Get(utils.MutationIDHeader))
	})
}
