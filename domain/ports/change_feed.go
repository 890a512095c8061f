package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bullet-ai/domain/models"
)

// ═══════════════════════════════════════════════════════════════════════════════
// Task Change Feed - ส่งการเปลี่ยนแปลงของ task ไปยังทุก session ของ user
// ═══════════════════════════════════════════════════════════════════════════════

type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// TaskChange - Plain struct (ไม่มี NATS dependency)
// MutationID คือ correlation id ที่ผู้เขียนแนบมากับ write และถูกส่งกลับมาใน feed
// เพื่อให้ client ตัด echo ของตัวเองออกได้
type TaskChange struct {
	Type       ChangeType
	UserID     uuid.UUID
	TaskID     uuid.UUID
	Task       *models.Task // nil สำหรับ delete
	MutationID string
	At         time.Time
}

// ChangeHandler - Callback function type
type ChangeHandler func(change *TaskChange)

// ChangeFeedPort - Interface สำหรับ publish/subscribe task changes
type ChangeFeedPort interface {
	// Publish ส่ง change ไปยัง subscriber ทั้งหมด
	Publish(ctx context.Context, change *TaskChange) error

	// Subscribe เริ่ม listen ทุก change (ทุก user) จนกว่า ctx ถูก cancel
	Subscribe(ctx context.Context, handler ChangeHandler) error

	// Close ปิด feed
	Close() error
}
