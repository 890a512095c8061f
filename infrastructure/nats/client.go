package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"bullet-ai/pkg/logger"
)

// Client wraps NATS connection with JetStream context
type Client struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream
	prefix string
}

// ClientConfig configuration สำหรับ NATS Client
type ClientConfig struct {
	URL           string // nats://localhost:4222
	SubjectPrefix string // tasks.changes
}

// NewClient สร้าง NATS Client พร้อม JetStream
func NewClient(cfg ClientConfig) (*Client, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("bullet-ai"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &Client{
		conn:   nc,
		js:     js,
		prefix: cfg.SubjectPrefix,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.setupStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to setup stream: %w", err)
	}

	logger.Info("NATS client initialized", "url", cfg.URL, "stream", ChangeStreamName)
	return client, nil
}

// setupStream สร้างหรืออัปเดต stream ที่ครอบ subject ของ change feed
// ใช้ LimitsPolicy: ทุก subscriber (core sub) ยังได้รับ message ครบ
func (c *Client) setupStream(ctx context.Context) error {
	stream, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        ChangeStreamName,
		Subjects:    []string{SubjectWildcard(c.prefix)},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      ChangeStreamMaxAge,
		Replicas:    1,
		Description: "Task change feed (per-user subjects)",
	})
	if err != nil {
		return fmt.Errorf("failed to create/update change stream: %w", err)
	}
	c.stream = stream
	logger.Info("JetStream stream ready", "name", ChangeStreamName)
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Getters
// ═══════════════════════════════════════════════════════════════════════════════

func (c *Client) Conn() *nats.Conn {
	return c.conn
}

func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

func (c *Client) SubjectPrefix() string {
	return c.prefix
}

// GetStatus ดึงสถานะ change stream
func (c *Client) GetStatus(ctx context.Context) (*StreamStatus, error) {
	info, err := c.stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}

	return &StreamStatus{
		Name:      info.Config.Name,
		Subject:   SubjectWildcard(c.prefix),
		Messages:  info.State.Msgs,
		Bytes:     info.State.Bytes,
		FirstSeq:  info.State.FirstSeq,
		LastSeq:   info.State.LastSeq,
		Connected: c.IsConnected(),
	}, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// Lifecycle
// ═══════════════════════════════════════════════════════════════════════════════

// Close ปิด NATS connection
func (c *Client) Close() error {
	if c.conn != nil {
		c.conn.Close()
		logger.Info("NATS connection closed")
	}
	return nil
}

// Ping ทดสอบ connection
func (c *Client) Ping() error {
	return c.conn.FlushTimeout(5 * time.Second)
}

func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}
