package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"bullet-ai/pkg/logger"
)

// Publisher ส่ง change ไปยัง subject ของ user ผ่าน JetStream (ได้ ack กลับ)
type Publisher struct {
	client *Client
}

func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// PublishChange ส่ง payload ไปที่ {prefix}.{userID}
// msgID ใช้เป็น Nats-Msg-Id เพื่อให้ JetStream dedupe การ publish ซ้ำ
func (p *Publisher) PublishChange(ctx context.Context, userID, msgID string, data []byte) error {
	subject := SubjectForUser(p.client.prefix, userID)

	msg := nats.NewMsg(subject)
	msg.Data = data

	var opts []jetstream.PublishOpt
	if msgID != "" {
		opts = append(opts, jetstream.WithMsgID(msgID))
	}

	ack, err := p.client.js.PublishMsg(ctx, msg, opts...)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to publish task change",
			"subject", subject,
			"error", err,
		)
		return fmt.Errorf("failed to publish change: %w", err)
	}

	logger.DebugContext(ctx, "Task change published",
		"subject", subject,
		"stream", ack.Stream,
		"sequence", ack.Sequence,
	)
	return nil
}
