package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"bullet-ai/domain/models"
)

// ErrRecordNotFound - ไม่พบแถว (หรือไม่ใช่ของ user คนนี้)
var ErrRecordNotFound = errors.New("record not found")

// TaskRepository - ทุก method scope ด้วย userID (row ownership)
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	CreateBatch(ctx context.Context, tasks []*models.Task) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Task, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	MaxPosition(ctx context.Context, userID uuid.UUID) (int, error)
	Reorder(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.Task, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}
