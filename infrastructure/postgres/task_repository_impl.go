package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bullet-ai/domain/models"
	"bullet-ai/domain/repositories"
)

type TaskRepositoryImpl struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) repositories.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// CreateBatch insert หลายแถวใน transaction เดียว (ใช้ตอน accept plan)
func (r *TaskRepositoryImpl) CreateBatch(ctx context.Context, tasks []*models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&tasks).Error
	})
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrRecordNotFound
		}
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepositoryImpl) ListByUserID(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position ASC, created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

// taskUpdateColumns - ทุก column ที่แก้ได้ ต้อง Select ตรงๆ
// ไม่งั้น Updates(struct) ข้ามค่า zero เช่น due_date = NULL, is_completed = false
var taskUpdateColumns = []string{
	"title", "description", "priority", "tags", "start_date", "due_date", "is_completed", "position", "updated_at",
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *models.Task) error {
	res := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND user_id = ?", task.ID, task.UserID).
		Select(taskUpdateColumns).
		Updates(task)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repositories.ErrRecordNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repositories.ErrRecordNotFound
	}
	return nil
}

func (r *TaskRepositoryImpl) MaxPosition(ctx context.Context, userID uuid.UUID) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("user_id = ?", userID).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return -1, nil
	}
	return *max, nil
}

// Reorder เขียน position = index ตามลำดับ ids ใน transaction เดียว
func (r *TaskRepositoryImpl) Reorder(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.Task, error) {
	var updated []models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for pos, id := range ids {
			res := tx.Model(&models.Task{}).
				Where("id = ? AND user_id = ?", id, userID).
				Update("position", pos)
			if res.Error != nil {
				return fmt.Errorf("reorder task %s: %w", id, res.Error)
			}
			if res.RowsAffected == 0 {
				return repositories.ErrRecordNotFound
			}
		}
		return tx.Where("user_id = ? AND id IN ?", userID, ids).
			Order("position ASC").
			Find(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *TaskRepositoryImpl) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
