package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"bullet-ai/domain/dto"
	"bullet-ai/domain/ports"
	"bullet-ai/pkg/logger"
)

// ChangeBroadcaster รับ change จาก feed แล้วส่งไปทุก session ของเจ้าของ task
// ใช้ ports.ChangeFeedPort เพื่อ decouple จาก NATS implementation
type ChangeBroadcaster struct {
	feed      ports.ChangeFeedPort
	manager   *WebSocketManager
	running   bool
	runningMu sync.Mutex
	cancelCtx context.CancelFunc
}

func NewChangeBroadcaster(feed ports.ChangeFeedPort, manager *WebSocketManager) *ChangeBroadcaster {
	return &ChangeBroadcaster{
		feed:    feed,
		manager: manager,
	}
}

// Start เริ่ม broadcaster
func (cb *ChangeBroadcaster) Start() error {
	cb.runningMu.Lock()
	defer cb.runningMu.Unlock()
	if cb.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := cb.feed.Subscribe(ctx, cb.handleChange); err != nil {
		cancel()
		return err
	}
	cb.cancelCtx = cancel
	cb.running = true

	logger.Info("Change broadcaster started")
	return nil
}

func (cb *ChangeBroadcaster) handleChange(change *ports.TaskChange) {
	if change == nil || change.UserID == uuid.Nil {
		logger.Warn("Invalid task change received")
		return
	}
	cb.manager.BroadcastToUser(change.UserID, TypeTaskChange, dto.TaskChangeToMessage(change))
}

// BroadcastRollover แจ้งทุก client ว่าวันเปลี่ยน (today/future ต้องคำนวณใหม่)
func (cb *ChangeBroadcaster) BroadcastRollover(now time.Time) {
	cb.manager.BroadcastToAll(TypeRollover, dto.RolloverMessage{Date: now.Format("2006-01-02")})
	logger.Info("Broadcast view rollover", "date", now.Format("2006-01-02"), "clients", cb.manager.GetTotalClients())
}

// Stop หยุด broadcaster
func (cb *ChangeBroadcaster) Stop() {
	cb.runningMu.Lock()
	defer cb.runningMu.Unlock()
	if !cb.running {
		return
	}
	cb.running = false
	if cb.cancelCtx != nil {
		cb.cancelCtx()
	}
	logger.Info("Change broadcaster stopped")
}
