package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"bullet-ai/domain/dto"
	"bullet-ai/domain/ports"
)

// message types ที่ server push มาทาง /ws
const (
	typeTaskChange = "task.change"
	typeRollover   = "views.rollover"
	typePing       = "ping"
)

const pingInterval = 30 * time.Second

// ErrNoToken - change feed ต้องมี token เสมอ
var ErrNoToken = errors.New("access token is required")

type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// WatchHandlers - callback ของ Watch (nil = ไม่สนใจ)
type WatchHandlers struct {
	OnChange   func(change *ports.TaskChange)
	OnRollover func(date string)
}

// WebSocketURL แปลง base URL ของ API เป็น ws(s)://.../ws
func (c *Client) WebSocketURL() string {
	switch {
	case strings.HasPrefix(c.baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.baseURL, "https://") + "/ws"
	case strings.HasPrefix(c.baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.baseURL, "http://") + "/ws"
	}
	return c.baseURL + "/ws"
}

// Watch ต่อ change feed ของ user แล้วเรียก handler จนกว่า ctx ถูก cancel
// หรือ connection หลุด (คืน error ให้ผู้เรียกตัดสินใจ reconnect เอง)
func (c *Client) Watch(ctx context.Context, h WatchHandlers) error {
	if c.token == "" {
		return ErrNoToken
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.token)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, c.WebSocketURL(), header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial change feed: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial change feed: %w", err)
	}

	var closeOnce sync.Once
	closeConn := func() { closeOnce.Do(func() { _ = conn.Close() }) }
	defer closeConn()

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				closeConn()
				return
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteJSON(wsMessage{Type: typePing}); err != nil {
					closeConn()
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read change feed: %w", err)
		}
		dispatch(data, h)
	}
}

func dispatch(data []byte, h WatchHandlers) {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	switch msg.Type {
	case typeTaskChange:
		if h.OnChange == nil {
			return
		}
		var change dto.TaskChangeMessage
		if err := json.Unmarshal(msg.Data, &change); err != nil {
			return
		}
		h.OnChange(dto.MessageToTaskChange(&change))
	case typeRollover:
		if h.OnRollover == nil {
			return
		}
		var roll dto.RolloverMessage
		if err := json.Unmarshal(msg.Data, &roll); err != nil {
			return
		}
		h.OnRollover(roll.Date)
	}
}
