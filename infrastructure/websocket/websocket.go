package websocket

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"bullet-ai/pkg/logger"
)

// Message types ที่ server ส่ง
const (
	TypeTaskChange = "task.change"
	TypeRollover   = "views.rollover"
	TypePing       = "ping"
	TypePong       = "pong"
	TypeError      = "error"
)

// Conn - subset ของ *websocket.Conn (gofiber) ที่ manager ใช้
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// WebSocketManager - 1 user มีได้หลาย connection (หลาย tab/อุปกรณ์)
// ทุก session ของ user ต้องได้รับ change เพื่อให้ replica ตรงกัน
type WebSocketManager struct {
	clients         map[Conn]Client
	userConnections map[uuid.UUID]map[Conn]struct{}
	register        chan Client
	unregister      chan Conn
	broadcast       chan BroadcastMessage
	done            chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
	mutex           sync.RWMutex
}

type Client struct {
	Conn   Conn
	UserID uuid.UUID
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// BroadcastMessage - เลือกปลายทางได้ทีละแบบ: Conn (ตอบ connection เดียว), UserID หรือทุกคน
// ทุกการเขียนลง connection เกิดใน run() เท่านั้น (websocket รับ writer ได้ทีละตัว)
type BroadcastMessage struct {
	Message Message
	UserID  *uuid.UUID
	Conn    Conn
}

// NewManager สร้าง manager และเริ่ม loop
func NewManager() *WebSocketManager {
	m := &WebSocketManager{
		clients:         make(map[Conn]Client),
		userConnections: make(map[uuid.UUID]map[Conn]struct{}),
		register:        make(chan Client),
		unregister:      make(chan Conn),
		broadcast:       make(chan BroadcastMessage, 256),
		done:            make(chan struct{}),
	}
	m.wg.Add(1)
	go m.run()
	return m
}

func (m *WebSocketManager) run() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			m.mutex.Lock()
			for conn := range m.clients {
				_ = conn.Close()
			}
			m.clients = make(map[Conn]Client)
			m.userConnections = make(map[uuid.UUID]map[Conn]struct{})
			m.mutex.Unlock()
			return

		case client := <-m.register:
			m.mutex.Lock()
			m.clients[client.Conn] = client
			if m.userConnections[client.UserID] == nil {
				m.userConnections[client.UserID] = make(map[Conn]struct{})
			}
			m.userConnections[client.UserID][client.Conn] = struct{}{}
			sessions := len(m.userConnections[client.UserID])
			m.mutex.Unlock()

			logger.Info("WebSocket client connected", "user_id", client.UserID, "sessions", sessions)

		case conn := <-m.unregister:
			m.remove(conn)

		case message := <-m.broadcast:
			var targets []Conn
			m.mutex.RLock()
			if message.Conn != nil {
				targets = append(targets, message.Conn)
			} else if message.UserID != nil {
				for conn := range m.userConnections[*message.UserID] {
					targets = append(targets, conn)
				}
			} else {
				for conn := range m.clients {
					targets = append(targets, conn)
				}
			}
			m.mutex.RUnlock()

			for _, conn := range targets {
				if err := conn.WriteJSON(message.Message); err != nil {
					logger.Warn("WebSocket send failed", "type", message.Message.Type, "error", err)
					m.remove(conn)
				}
			}
		}
	}
}

func (m *WebSocketManager) remove(conn Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	client, ok := m.clients[conn]
	if !ok {
		return
	}
	delete(m.clients, conn)
	if conns := m.userConnections[client.UserID]; conns != nil {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(m.userConnections, client.UserID)
		}
	}
	_ = conn.Close()
	logger.Info("WebSocket client disconnected", "user_id", client.UserID)
}

func (m *WebSocketManager) RegisterClient(conn Conn, userID uuid.UUID) {
	select {
	case m.register <- Client{Conn: conn, UserID: userID}:
	case <-m.done:
	}
}

func (m *WebSocketManager) UnregisterClient(conn Conn) {
	select {
	case m.unregister <- conn:
	case <-m.done:
	}
}

func (m *WebSocketManager) BroadcastToUser(userID uuid.UUID, messageType string, data interface{}) {
	m.send(BroadcastMessage{
		Message: Message{Type: messageType, Data: data},
		UserID:  &userID,
	})
}

func (m *WebSocketManager) BroadcastToAll(messageType string, data interface{}) {
	m.send(BroadcastMessage{
		Message: Message{Type: messageType, Data: data},
	})
}

func (m *WebSocketManager) send(msg BroadcastMessage) {
	select {
	case m.broadcast <- msg:
	case <-m.done:
	}
}

// GetUserClients จำนวน session ที่เปิดอยู่ของ user
func (m *WebSocketManager) GetUserClients(userID uuid.UUID) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.userConnections[userID])
}

func (m *WebSocketManager) GetTotalClients() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

// Stop ปิดทุก connection และหยุด loop
func (m *WebSocketManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
	})
	m.wg.Wait()
}

// HandleMessage จัดการ message จาก client (ตอนนี้มีแค่ ping)
// ถูกเรียกจาก read goroutine จึงส่งคำตอบผ่าน run() แทนการเขียนเอง
func (m *WebSocketManager) HandleMessage(conn Conn, data []byte) {
	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		m.send(BroadcastMessage{Message: Message{Type: TypeError, Data: "invalid message"}, Conn: conn})
		return
	}

	switch message.Type {
	case TypePing:
		m.send(BroadcastMessage{Message: Message{Type: TypePong}, Conn: conn})
	default:
		logger.Debug("Unknown WebSocket message type", "type", message.Type)
	}
}
