package serviceimpl

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"bullet-ai/domain/dto"
	"bullet-ai/domain/models"
	"bullet-ai/domain/ports"
	"bullet-ai/domain/repositories"
	"bullet-ai/domain/services"
	"bullet-ai/pkg/logger"
	"bullet-ai/pkg/plan"
	"bullet-ai/pkg/utils"
	"bullet-ai/pkg/views"
)

const (
	taskCachePrefix      = "tasks:user:"
	taskGenerationPrefix = "tasks:gen:"
)

// TaskCache - subset ของ redis.Client ที่ service ใช้
//
// key ของรายการ task ผูกกับ generation ของ user ซึ่งถูก INCR ทุก write
// read ที่เริ่ม fill ก่อน write จะเขียนลง key ของ generation เก่าที่ไม่มีใครอ่านอีก
type TaskCache interface {
	GetOrSet(ctx context.Context, key string, target interface{}, ttl time.Duration, getter func() (interface{}, error)) error
	GetInt(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string) (int64, error)
}

type TaskServiceImpl struct {
	taskRepo repositories.TaskRepository
	feed     ports.ChangeFeedPort
	cache    TaskCache // optional - ถ้าไม่มีจะ query DB ตลอด
	cacheTTL time.Duration
	now      func() time.Time
}

func NewTaskService(taskRepo repositories.TaskRepository, feed ports.ChangeFeedPort) *TaskServiceImpl {
	return &TaskServiceImpl{
		taskRepo: taskRepo,
		feed:     feed,
		now:      storeNow,
	}
}

// storeNow - timestamptz เก็บแค่ microsecond จึงตัดให้ตรงกับค่าที่อ่านกลับมา
func storeNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NewTaskServiceWithCache สร้าง task service พร้อม Redis cache ของรายการ task
func NewTaskServiceWithCache(taskRepo repositories.TaskRepository, feed ports.ChangeFeedPort, cache TaskCache, ttl time.Duration) *TaskServiceImpl {
	s := NewTaskService(taskRepo, feed)
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

var _ services.TaskService = (*TaskServiceImpl)(nil)

// ==================== Reads ====================

func (s *TaskServiceImpl) ListTasks(ctx context.Context, userID uuid.UUID, tag string) ([]models.Task, error) {
	tasks, err := s.loadTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return tasks, nil
	}

	want := slug.Make(tag)
	filtered := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		for _, tg := range t.Tags {
			if slug.Make(tg) == want {
				filtered = append(filtered, t)
				break
			}
		}
	}
	return filtered, nil
}

func (s *TaskServiceImpl) GetViews(ctx context.Context, userID uuid.UUID, now time.Time) (views.Views, views.Stats, error) {
	tasks, err := s.loadTasks(ctx, userID)
	if err != nil {
		return views.Views{}, views.Stats{}, err
	}
	return views.Classify(tasks, now), views.ComputeStats(tasks, now), nil
}

func (s *TaskServiceImpl) GetStats(ctx context.Context, userID uuid.UUID, now time.Time) (views.Stats, error) {
	tasks, err := s.loadTasks(ctx, userID)
	if err != nil {
		return views.Stats{}, err
	}
	return views.ComputeStats(tasks, now), nil
}

func (s *TaskServiceImpl) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, s.mapNotFound(err)
	}
	return task, nil
}

// loadTasks อ่านจาก cache ก่อน (ถ้ามี) แล้ว fallback DB
func (s *TaskServiceImpl) loadTasks(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	getter := func() (interface{}, error) {
		return s.taskRepo.ListByUserID(ctx, userID)
	}

	if s.cache == nil {
		tasks, err := s.taskRepo.ListByUserID(ctx, userID)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to list tasks", "user_id", userID, "error", err)
			return nil, err
		}
		return tasks, nil
	}

	gen, err := s.cache.GetInt(ctx, taskGenerationPrefix+userID.String())
	if err != nil {
		logger.WarnContext(ctx, "Task cache unavailable, reading database", "user_id", userID, "error", err)
		return s.taskRepo.ListByUserID(ctx, userID)
	}

	var tasks []models.Task
	if err := s.cache.GetOrSet(ctx, taskListKey(userID, gen), &tasks, s.cacheTTL, getter); err != nil {
		logger.WarnContext(ctx, "Task cache unavailable, reading database", "user_id", userID, "error", err)
		return s.taskRepo.ListByUserID(ctx, userID)
	}
	return tasks, nil
}

// ==================== Writes ====================

func (s *TaskServiceImpl) CreateTask(ctx context.Context, userID uuid.UUID, req *dto.CreateTaskRequest) (*models.Task, error) {
	task := dto.CreateTaskRequestToTask(req)
	task.Title = utils.TruncateRunes(strings.TrimSpace(task.Title), services.MaxTaskTitle)
	if task.Title == "" {
		return nil, services.ErrTitleRequired
	}
	if !task.Priority.IsValid() {
		task.Priority = models.PriorityMedium
	}
	task.ID = uuid.New()
	task.UserID = userID

	pos, err := s.taskRepo.MaxPosition(ctx, userID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to read max position", "user_id", userID, "error", err)
		return nil, err
	}
	task.Position = pos + 1

	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.taskRepo.Create(ctx, task); err != nil {
		logger.ErrorContext(ctx, "Failed to create task", "user_id", userID, "error", err)
		return nil, err
	}

	logger.InfoContext(ctx, "Task created", "task_id", task.ID, "user_id", userID)
	s.afterWrite(ctx, ports.ChangeInsert, task)
	return task, nil
}

func (s *TaskServiceImpl) UpdateTask(ctx context.Context, userID, taskID uuid.UUID, req *dto.UpdateTaskRequest) (*models.Task, error) {
	return s.mutate(ctx, userID, taskID, "update", func(task *models.Task) error {
		dto.ApplyUpdateRequest(task, req)
		task.Title = utils.TruncateRunes(strings.TrimSpace(task.Title), services.MaxTaskTitle)
		if task.Title == "" {
			return services.ErrTitleRequired
		}
		if !task.Priority.IsValid() {
			task.Priority = models.PriorityMedium
		}
		return nil
	})
}

func (s *TaskServiceImpl) ToggleTask(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	return s.mutate(ctx, userID, taskID, "toggle", func(task *models.Task) error {
		task.IsCompleted = !task.IsCompleted
		return nil
	})
}

// MigrateTask ย้าย task กลับไป migration (ลบ due date)
func (s *TaskServiceImpl) MigrateTask(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	return s.mutate(ctx, userID, taskID, "migrate", func(task *models.Task) error {
		task.DueDate = nil
		return nil
	})
}

func (s *TaskServiceImpl) ScheduleTask(ctx context.Context, userID, taskID uuid.UUID, due time.Time) (*models.Task, error) {
	return s.mutate(ctx, userID, taskID, "schedule", func(task *models.Task) error {
		d := due
		task.DueDate = &d
		return nil
	})
}

// mutate อ่าน-แก้-เขียน แล้ว publish update
func (s *TaskServiceImpl) mutate(ctx context.Context, userID, taskID uuid.UUID, op string, apply func(*models.Task) error) (*models.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, s.mapNotFound(err)
	}

	if err := apply(task); err != nil {
		return nil, err
	}
	task.UpdatedAt = s.now()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, services.ErrTaskNotFound
		}
		logger.ErrorContext(ctx, "Failed to update task", "op", op, "task_id", taskID, "error", err)
		return nil, err
	}

	logger.InfoContext(ctx, "Task updated", "op", op, "task_id", taskID)
	s.afterWrite(ctx, ports.ChangeUpdate, task)
	return task, nil
}

// ReorderTasks - change ต่อแถวทุกแถวใช้ mutation id เดียวกัน
func (s *TaskServiceImpl) ReorderTasks(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.Task, error) {
	updated, err := s.taskRepo.Reorder(ctx, userID, ids)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, services.ErrTaskNotFound
		}
		logger.ErrorContext(ctx, "Failed to reorder tasks", "user_id", userID, "count", len(ids), "error", err)
		return nil, err
	}

	s.invalidate(ctx, userID)
	for i := range updated {
		s.publish(ctx, ports.ChangeUpdate, userID, updated[i].ID, &updated[i])
	}
	logger.InfoContext(ctx, "Tasks reordered", "user_id", userID, "count", len(ids))
	return updated, nil
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	if err := s.taskRepo.Delete(ctx, userID, taskID); err != nil {
		return s.mapNotFound(err)
	}

	logger.InfoContext(ctx, "Task deleted", "task_id", taskID, "user_id", userID)
	s.invalidate(ctx, userID)
	s.publish(ctx, ports.ChangeDelete, userID, taskID, nil)
	return nil
}

// AcceptPlan แปลง plan เป็น task จริง
// tasksDaily → due ปลายวันนี้ (ตาม location ของ now), tasksFuture → ยังไม่กำหนดวัน
func (s *TaskServiceImpl) AcceptPlan(ctx context.Context, userID uuid.UUID, p plan.Plan, now time.Time) ([]models.Task, error) {
	if p.Len() == 0 {
		return nil, services.ErrEmptyPlan
	}

	pos, err := s.taskRepo.MaxPosition(ctx, userID)
	if err != nil {
		return nil, err
	}

	endOfDay := views.EndOfDay(now)
	stamp := s.now()
	var batch []*models.Task
	add := func(items []plan.Item, due *time.Time) {
		for _, it := range items {
			title := utils.TruncateRunes(strings.TrimSpace(it.Title), services.MaxPlanTitle)
			if title == "" {
				continue
			}
			pos++
			t := &models.Task{
				ID:          uuid.New(),
				UserID:      userID,
				Title:       title,
				Description: strings.TrimSpace(it.Description),
				Priority:    models.PriorityMedium,
				Position:    pos,
				CreatedAt:   stamp,
				UpdatedAt:   stamp,
			}
			if due != nil {
				d := *due
				t.DueDate = &d
			}
			batch = append(batch, t)
		}
	}
	add(p.TasksDaily, &endOfDay)
	add(p.TasksFuture, nil)

	if len(batch) == 0 {
		return nil, services.ErrEmptyPlan
	}

	if err := s.taskRepo.CreateBatch(ctx, batch); err != nil {
		logger.ErrorContext(ctx, "Failed to accept plan", "user_id", userID, "error", err)
		return nil, err
	}

	s.invalidate(ctx, userID)
	created := make([]models.Task, 0, len(batch))
	for _, t := range batch {
		s.publish(ctx, ports.ChangeInsert, userID, t.ID, t)
		created = append(created, *t)
	}
	logger.InfoContext(ctx, "Plan accepted", "user_id", userID, "created", len(created))
	return created, nil
}

// ==================== Helpers ====================

func (s *TaskServiceImpl) afterWrite(ctx context.Context, typ ports.ChangeType, task *models.Task) {
	s.invalidate(ctx, task.UserID)
	s.publish(ctx, typ, task.UserID, task.ID, task)
}

// publish ไม่ทำให้ write ล้ม: แถวถูกเขียนแล้ว client จะได้ค่าจาก response อยู่ดี
func (s *TaskServiceImpl) publish(ctx context.Context, typ ports.ChangeType, userID, taskID uuid.UUID, task *models.Task) {
	if s.feed == nil {
		return
	}
	change := &ports.TaskChange{
		Type:       typ,
		UserID:     userID,
		TaskID:     taskID,
		MutationID: utils.MutationIDFromContext(ctx),
		At:         s.now(),
	}
	if task != nil {
		cp := task.Clone()
		change.Task = &cp
	}
	if err := s.feed.Publish(ctx, change); err != nil {
		logger.WarnContext(ctx, "Failed to publish task change", "task_id", taskID, "type", typ, "error", err)
	}
}

func (s *TaskServiceImpl) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, taskGenerationPrefix+userID.String()); err != nil {
		logger.WarnContext(ctx, "Failed to invalidate task cache", "user_id", userID, "error", err)
	}
}

func taskListKey(userID uuid.UUID, gen int64) string {
	return taskCachePrefix + userID.String() + ":" + strconv.FormatInt(gen, 10)
}

func (s *TaskServiceImpl) mapNotFound(err error) error {
	if errors.Is(err, repositories.ErrRecordNotFound) {
		return services.ErrTaskNotFound
	}
	return err
}
