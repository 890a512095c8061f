package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// IsValid ตรวจว่าเป็น priority ที่รู้จัก
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task - DueDate เป็น nil หมายถึงยังไม่ได้จัดวัน (อยู่ใน migration list)
type Task struct {
	ID          uuid.UUID      `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title       string         `gorm:"not null"`
	Description string
	Priority    Priority       `gorm:"type:varchar(10);not null;default:'medium'"`
	Tags        pq.StringArray `gorm:"type:text[]"`
	StartDate   *time.Time
	DueDate     *time.Time `gorm:"index"`
	IsCompleted bool       `gorm:"not null;default:false"`
	Position    int        `gorm:"not null;default:0"`
	CreatedAt   time.Time  `gorm:"<-:create"`
	UpdatedAt   time.Time
}

func (Task) TableName() string {
	return "tasks"
}

// Clone คืนสำเนาที่ไม่แชร์ pointer/slice กับต้นฉบับ
func (t Task) Clone() Task {
	cp := t
	if t.Tags != nil {
		cp.Tags = append(pq.StringArray(nil), t.Tags...)
	}
	if t.StartDate != nil {
		d := *t.StartDate
		cp.StartDate = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		cp.DueDate = &d
	}
	return cp
}
