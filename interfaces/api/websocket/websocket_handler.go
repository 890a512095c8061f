package websocket

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	websocketManager "bullet-ai/infrastructure/websocket"
	"bullet-ai/pkg/logger"
	"bullet-ai/pkg/utils"
)

// maxMessageSize - client ส่งแค่ ping
const maxMessageSize = 4 << 10

type WebSocketHandler struct {
	manager *websocketManager.WebSocketManager
}

func NewWebSocketHandler(manager *websocketManager.WebSocketManager) *WebSocketHandler {
	return &WebSocketHandler{manager: manager}
}

func (h *WebSocketHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleWebSocket - ต้องผ่าน Protected มาก่อน ทุก connection ผูกกับ user
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	user, ok := c.Locals("user").(*utils.UserContext)
	if !ok || user == nil {
		_ = c.WriteJSON(websocketManager.Message{Type: websocketManager.TypeError, Data: "unauthorized"})
		_ = c.Close()
		return
	}

	c.SetReadLimit(maxMessageSize)
	h.manager.RegisterClient(c, user.ID)
	defer h.manager.UnregisterClient(c)

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			logger.Debug("WebSocket read ended", "user_id", user.ID, "error", err)
			return
		}
		h.manager.HandleMessage(c, message)
	}
}
