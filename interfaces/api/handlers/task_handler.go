package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"bullet-ai/domain/dto"
	"bullet-ai/domain/services"
	"bullet-ai/pkg/logger"
	"bullet-ai/pkg/utils"
)

type TaskHandler struct {
	taskService services.TaskService
	location    *time.Location // default เมื่อไม่ส่ง ?tz=
	now         func() time.Time
}

func NewTaskHandler(taskService services.TaskService, location *time.Location) *TaskHandler {
	if location == nil {
		location = time.UTC
	}
	return &TaskHandler{
		taskService: taskService,
		location:    location,
		now:         time.Now,
	}
}

func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	var filter dto.TaskFilterRequest
	if err := c.QueryParser(&filter); err != nil {
		return utils.BadRequestResponse(c, "Invalid query parameters")
	}
	if err := utils.ValidateStruct(&filter); err != nil {
		return utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
	}

	tasks, err := h.taskService.ListTasks(ctx, user.ID, filter.Tag)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list tasks", "user_id", user.ID, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.SuccessResponse(c, dto.TaskListResponse{
		Tasks: dto.TasksToTaskResponses(tasks),
		Total: len(tasks),
	})
}

// GetViews คืน today/future/migration ตามวันของ ?tz= (default APP_TIMEZONE)
func (h *TaskHandler) GetViews(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	now, err := h.nowIn(c)
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid time zone")
	}

	v, stats, err := h.taskService.GetViews(ctx, user.ID, now)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build views", "user_id", user.ID, "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.SuccessResponse(c, dto.ViewsToResponse(v, stats, now))
}

func (h *TaskHandler) GetStats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	now, err := h.nowIn(c)
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid time zone")
	}

	stats, err := h.taskService.GetStats(ctx, user.ID, now)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to compute stats", "user_id", user.ID, "error", err)
		return utils.InternalServerErrorResponse(c)
	}
	return utils.SuccessResponse(c, dto.StatsToResponse(stats))
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, taskID, err := h.userAndTask(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(ctx, user.ID, taskID)
	if err != nil {
		return h.taskError(c, err)
	}
	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		logger.WarnContext(ctx, "Unauthorized access attempt")
		return utils.UnauthorizedResponse(c, "")
	}

	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		errs := utils.GetValidationErrors(err)
		logger.WarnContext(ctx, "Validation failed", "errors", errs)
		return utils.ValidationErrorResponse(c, errs)
	}

	task, err := h.taskService.CreateTask(ctx, user.ID, &req)
	if err != nil {
		return h.taskError(c, err)
	}
	return utils.CreatedResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, taskID, err := h.userAndTask(c)
	if err != nil {
		return err
	}

	var req dto.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		logger.WarnContext(ctx, "Invalid request body", "error", err)
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
	}

	task, err := h.taskService.UpdateTask(ctx, user.ID, taskID, &req)
	if err != nil {
		return h.taskError(c, err)
	}
	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) ToggleTask(c *fiber.Ctx) error {
	user, taskID, err := h.userAndTask(c)
	if err != nil {
		return err
	}
	task, err := h.taskService.ToggleTask(c.UserContext(), user.ID, taskID)
	if err != nil {
		return h.taskError(c, err)
	}
	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) MigrateTask(c *fiber.Ctx) error {
	user, taskID, err := h.userAndTask(c)
	if err != nil {
		return err
	}
	task, err := h.taskService.MigrateTask(c.UserContext(), user.ID, taskID)
	if err != nil {
		return h.taskError(c, err)
	}
	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) ScheduleTask(c *fiber.Ctx) error {
	user, taskID, err := h.userAndTask(c)
	if err != nil {
		return err
	}

	var req dto.ScheduleTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
	}

	task, err := h.taskService.ScheduleTask(c.UserContext(), user.ID, taskID, req.DueDate)
	if err != nil {
		return h.taskError(c, err)
	}
	return utils.SuccessResponse(c, dto.TaskToTaskResponse(task))
}

func (h *TaskHandler) ReorderTasks(c *fiber.Ctx) error {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	var req dto.ReorderTasksRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
	}

	tasks, err := h.taskService.ReorderTasks(c.UserContext(), user.ID, req.IDs)
	if err != nil {
		return h.taskError(c, err)
	}
	return utils.SuccessResponse(c, dto.TaskListResponse{
		Tasks: dto.TasksToTaskResponses(tasks),
		Total: len(tasks),
	})
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	user, taskID, err := h.userAndTask(c)
	if err != nil {
		return err
	}
	if err := h.taskService.DeleteTask(c.UserContext(), user.ID, taskID); err != nil {
		return h.taskError(c, err)
	}
	return utils.NoContentResponse(c)
}

// AcceptPlan แปลง plan ที่ผู้ใช้กดยอมรับเป็น task
func (h *TaskHandler) AcceptPlan(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return utils.UnauthorizedResponse(c, "")
	}

	now, err := h.nowIn(c)
	if err != nil {
		return utils.BadRequestResponse(c, "Invalid time zone")
	}

	var req dto.AcceptPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
	}

	created, err := h.taskService.AcceptPlan(ctx, user.ID, dto.AcceptPlanRequestToPlan(&req), now)
	if err != nil {
		return h.taskError(c, err)
	}
	return utils.CreatedResponse(c, dto.AcceptPlanResponse{Created: dto.TasksToTaskResponses(created)})
}

// ==================== Helpers ====================

// userAndTask คืน *fiber.Error ให้ ErrorHandler เขียน response
func (h *TaskHandler) userAndTask(c *fiber.Ctx) (*utils.UserContext, uuid.UUID, error) {
	user, err := utils.GetUserFromContext(c)
	if err != nil {
		return nil, uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}

	taskIDStr := c.Params("id")
	taskID, err := uuid.Parse(taskIDStr)
	if err != nil {
		logger.WarnContext(c.UserContext(), "Invalid task ID", "task_id", taskIDStr)
		return nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid task ID")
	}
	return user, taskID, nil
}

func (h *TaskHandler) nowIn(c *fiber.Ctx) (time.Time, error) {
	loc := h.location
	if tz := c.Query("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, err
		}
		loc = l
	}
	return h.now().In(loc), nil
}

func (h *TaskHandler) taskError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		return utils.NotFoundResponse(c, "Task not found")
	case errors.Is(err, services.ErrTitleRequired), errors.Is(err, services.ErrEmptyPlan):
		return utils.BadRequestResponse(c, err.Error())
	}
	logger.ErrorContext(c.UserContext(), "Task operation failed", "path", c.Path(), "error", err)
	return utils.InternalServerErrorResponse(c)
}
