package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"bullet-ai/domain/dto"
	"bullet-ai/domain/models"
	"bullet-ai/pkg/plan"
	"bullet-ai/pkg/views"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrTitleRequired = errors.New("title is required")
	ErrEmptyPlan     = errors.New("plan has no tasks")
)

const (
	// MaxTaskTitle ความยาว title (rune) ของ task ที่สร้างเอง
	MaxTaskTitle = 50
	// MaxPlanTitle ความยาว title (rune) ของ task ที่มาจาก plan
	MaxPlanTitle = 30
)

// TaskService - ทุก write publish change ลง feed พร้อม mutation id จาก ctx
type TaskService interface {
	ListTasks(ctx context.Context, userID uuid.UUID, tag string) ([]models.Task, error)
	GetViews(ctx context.Context, userID uuid.UUID, now time.Time) (views.Views, views.Stats, error)
	GetStats(ctx context.Context, userID uuid.UUID, now time.Time) (views.Stats, error)
	GetTask(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error)
	CreateTask(ctx context.Context, userID uuid.UUID, req *dto.CreateTaskRequest) (*models.Task, error)
	UpdateTask(ctx context.Context, userID, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*models.Task, error)
	ToggleTask(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error)
	MigrateTask(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error)
	ScheduleTask(ctx context.Context, userID, taskID uuid.UUID, due time.Time) (*models.Task, error)
	ReorderTasks(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.Task, error)
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error
	AcceptPlan(ctx context.Context, userID uuid.UUID, p plan.Plan, now time.Time) ([]models.Task, error)
}
