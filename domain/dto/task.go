package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"omitempty,max=2000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	Tags        []string   `json:"tags" validate:"omitempty,max=20,dive,max=40"`
	StartDate   *time.Time `json:"startDate"`
	DueDate     *time.Time `json:"dueDate"`
	IsCompleted bool       `json:"isCompleted"`
}

// UpdateTaskRequest - field ที่เป็น nil คือไม่เปลี่ยน
// ใช้ ClearDueDate/ClearStartDate เพื่อลบวันที่ (nil แยกไม่ออกจาก "ไม่ส่งมา")
type UpdateTaskRequest struct {
	Title          *string    `json:"title" validate:"omitempty,max=200"`
	Description    *string    `json:"description" validate:"omitempty,max=2000"`
	Priority       *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	Tags           *[]string  `json:"tags" validate:"omitempty,max=20,dive,max=40"`
	StartDate      *time.Time `json:"startDate"`
	DueDate        *time.Time `json:"dueDate"`
	ClearStartDate bool       `json:"clearStartDate"`
	ClearDueDate   bool       `json:"clearDueDate"`
	IsCompleted    *bool      `json:"isCompleted"`
	Position       *int       `json:"position" validate:"omitempty,min=0"`
}

type ScheduleTaskRequest struct {
	DueDate time.Time `json:"dueDate" validate:"required"`
}

type ReorderTasksRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
}

type TaskFilterRequest struct {
	Tag string `query:"tag" validate:"omitempty,max=40"`
}

type TaskResponse struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    string     `json:"priority"`
	Tags        []string   `json:"tags"`
	StartDate   *time.Time `json:"startDate"`
	DueDate     *time.Time `json:"dueDate"`
	IsCompleted bool       `json:"isCompleted"`
	Overdue     bool       `json:"overdue,omitempty"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Total int            `json:"total"`
}

type StatsResponse struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

// ViewsResponse - today/future/migration คำนวณใหม่ทุก request
type ViewsResponse struct {
	Date      string         `json:"date"`
	TimeZone  string         `json:"timeZone"`
	Today     []TaskResponse `json:"today"`
	Future    []TaskResponse `json:"future"`
	Migration []TaskResponse `json:"migration"`
	Stats     StatsResponse  `json:"stats"`
}

// TaskChangeMessage - payload ของ change feed (NATS และ WebSocket)
type TaskChangeMessage struct {
	Type       string        `json:"type"`
	UserID     uuid.UUID     `json:"userId"`
	TaskID     uuid.UUID     `json:"taskId"`
	Task       *TaskResponse `json:"task,omitempty"`
	MutationID string        `json:"mutationId,omitempty"`
	At         time.Time     `json:"at"`
}

type RolloverMessage struct {
	Date string `json:"date"`
}
