package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"bullet-ai/domain/dto"
	"bullet-ai/domain/ports"
	natspkg "bullet-ai/infrastructure/nats"
	"bullet-ai/pkg/logger"
)

// NATSChangeFeed implements ChangeFeedPort ด้วย NATS (ข้ามหลาย API instance)
type NATSChangeFeed struct {
	publisher  *natspkg.Publisher
	subscriber *natspkg.Subscriber
}

func NewNATSChangeFeed(publisher *natspkg.Publisher, subscriber *natspkg.Subscriber) ports.ChangeFeedPort {
	return &NATSChangeFeed{
		publisher:  publisher,
		subscriber: subscriber,
	}
}

// Publish encode เป็น TaskChangeMessage แล้วส่งไป subject ของ user
func (f *NATSChangeFeed) Publish(ctx context.Context, change *ports.TaskChange) error {
	if change == nil {
		return nil
	}
	data, err := json.Marshal(dto.TaskChangeToMessage(change))
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	return f.publisher.PublishChange(ctx, change.UserID.String(), msgID(change), data)
}

// Subscribe ลงทะเบียน handler แล้วเริ่ม subscriber (ถ้ายังไม่เริ่ม)
func (f *NATSChangeFeed) Subscribe(ctx context.Context, handler ports.ChangeHandler) error {
	f.subscriber.OnMessage(func(subject string, data []byte) {
		if ctx.Err() != nil {
			return
		}
		var msg dto.TaskChangeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("Dropping malformed task change", "subject", subject, "error", err)
			return
		}
		handler(dto.MessageToTaskChange(&msg))
	})

	if !f.subscriber.IsRunning() {
		return f.subscriber.Start()
	}
	return nil
}

func (f *NATSChangeFeed) Close() error {
	return f.subscriber.Stop()
}

// msgID สำหรับ JetStream dedupe: reorder ใช้ mutation id เดียวหลายแถว จึงต้องรวม task id
func msgID(change *ports.TaskChange) string {
	if change.MutationID == "" {
		return ""
	}
	return change.MutationID + ":" + change.TaskID.String() + ":" + string(change.Type)
}
