package nats

import (
	"sync"

	"github.com/nats-io/nats.go"

	"bullet-ai/pkg/logger"
)

// MessageHandler callback เมื่อได้รับ change (subject + raw payload)
type MessageHandler func(subject string, data []byte)

// Subscriber core NATS subscriber ของ {prefix}.>
// ทุก API instance subscribe แยกกัน (fan-out ไม่ใช่ queue group)
type Subscriber struct {
	conn       *nats.Conn
	subject    string
	sub        *nats.Subscription
	handlers   []MessageHandler
	handlersMu sync.RWMutex
	running    bool
	runningMu  sync.Mutex
}

func NewSubscriber(client *Client) *Subscriber {
	return &Subscriber{
		conn:    client.conn,
		subject: SubjectWildcard(client.prefix),
	}
}

// OnMessage ลงทะเบียน handler
func (s *Subscriber) OnMessage(handler MessageHandler) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// Start เริ่ม subscribe
func (s *Subscriber) Start() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if s.running {
		return nil
	}

	sub, err := s.conn.Subscribe(s.subject, s.handleMessage)
	if err != nil {
		return err
	}
	s.sub = sub
	s.running = true

	logger.Info("NATS subscriber started", "subject", s.subject)
	return nil
}

func (s *Subscriber) handleMessage(msg *nats.Msg) {
	s.handlersMu.RLock()
	handlers := s.handlers
	s.handlersMu.RUnlock()

	// sync เพื่อรักษาลำดับ message ต่อ subscription
	for _, handler := range handlers {
		func(h MessageHandler) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Change handler panicked", "subject", msg.Subject, "error", r)
				}
			}()
			h(msg.Subject, msg.Data)
		}(handler)
	}
}

// Stop หยุด subscribe
func (s *Subscriber) Stop() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			return err
		}
		s.sub = nil
	}
	logger.Info("NATS subscriber stopped", "subject", s.subject)
	return nil
}

func (s *Subscriber) IsRunning() bool {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()
	return s.running
}
