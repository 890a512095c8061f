package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"bullet-ai/interfaces/api/handlers"
	"bullet-ai/interfaces/api/middleware"
	websocketHandler "bullet-ai/interfaces/api/websocket"
)

func SetupWebSocketRoutes(app *fiber.App, h *handlers.Handlers) {
	wsHandler := websocketHandler.NewWebSocketHandler(h.WebSocketManager)

	// token มาทาง Authorization header หรือ ?access_token=
	app.Use("/ws", wsHandler.WebSocketUpgrade, middleware.Protected(h.JWTSecret, h.JWTAudience))
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))
}
