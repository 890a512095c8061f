package messaging

import (
	"context"
	"errors"
	"sync"

	"bullet-ai/domain/ports"
	"bullet-ai/pkg/logger"
)

var ErrFeedClosed = errors.New("change feed closed")

// LocalChangeFeed fan-out ภายใน process (ใช้เมื่อไม่ได้ตั้ง NATS_URL)
type LocalChangeFeed struct {
	mu       sync.RWMutex
	handlers map[int]ports.ChangeHandler
	nextID   int
	closed   bool
}

func NewLocalChangeFeed() *LocalChangeFeed {
	return &LocalChangeFeed{handlers: make(map[int]ports.ChangeHandler)}
}

// Publish เรียก handler ทุกตัวแบบ sync ตามลำดับการ publish
func (f *LocalChangeFeed) Publish(ctx context.Context, change *ports.TaskChange) error {
	if change == nil {
		return nil
	}
	f.mu.RLock()
	if f.closed {
		f.mu.RUnlock()
		return ErrFeedClosed
	}
	handlers := make([]ports.ChangeHandler, 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.ErrorContext(ctx, "Change handler panicked", "error", r)
				}
			}()
			cp := *change
			h(&cp)
		}()
	}
	return nil
}

// Subscribe handler จะถูกถอดออกเมื่อ ctx ถูก cancel
func (f *LocalChangeFeed) Subscribe(ctx context.Context, handler ports.ChangeHandler) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrFeedClosed
	}
	id := f.nextID
	f.nextID++
	f.handlers[id] = handler
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.handlers, id)
		f.mu.Unlock()
	}()
	return nil
}

func (f *LocalChangeFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.handlers = make(map[int]ports.ChangeHandler)
	return nil
}

// Subscribers จำนวน handler ที่ยังลงทะเบียนอยู่
func (f *LocalChangeFeed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.handlers)
}
