package dto

import (
	"time"

	"github.com/lib/pq"

	"bullet-ai/domain/models"
	"bullet-ai/domain/ports"
	"bullet-ai/pkg/plan"
	"bullet-ai/pkg/views"
)

func TaskToTaskResponse(task *models.Task) *TaskResponse {
	if task == nil {
		return nil
	}
	tags := []string(task.Tags)
	if tags == nil {
		tags = []string{}
	}
	return &TaskResponse{
		ID:          task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    string(task.Priority),
		Tags:        tags,
		StartDate:   task.StartDate,
		DueDate:     task.DueDate,
		IsCompleted: task.IsCompleted,
		Position:    task.Position,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func TasksToTaskResponses(tasks []models.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, *TaskToTaskResponse(&tasks[i]))
	}
	return out
}

// TaskResponseToTask ใช้ฝั่ง client แปลง response กลับเป็น model
func TaskResponseToTask(resp *TaskResponse) models.Task {
	return models.Task{
		ID:          resp.ID,
		UserID:      resp.UserID,
		Title:       resp.Title,
		Description: resp.Description,
		Priority:    models.Priority(resp.Priority),
		Tags:        pq.StringArray(resp.Tags),
		StartDate:   resp.StartDate,
		DueDate:     resp.DueDate,
		IsCompleted: resp.IsCompleted,
		Position:    resp.Position,
		CreatedAt:   resp.CreatedAt,
		UpdatedAt:   resp.UpdatedAt,
	}
}

func CreateTaskRequestToTask(req *CreateTaskRequest) *models.Task {
	return &models.Task{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.Priority(req.Priority),
		Tags:        pq.StringArray(req.Tags),
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
		IsCompleted: req.IsCompleted,
	}
}

// TaskToCreateRequest / TaskToUpdateRequest - ฝั่ง client ส่ง state ทั้งก้อน
func TaskToCreateRequest(task *models.Task) *CreateTaskRequest {
	return &CreateTaskRequest{
		Title:       task.Title,
		Description: task.Description,
		Priority:    string(task.Priority),
		Tags:        []string(task.Tags),
		StartDate:   task.StartDate,
		DueDate:     task.DueDate,
		IsCompleted: task.IsCompleted,
	}
}

func TaskToUpdateRequest(task *models.Task) *UpdateTaskRequest {
	title := task.Title
	description := task.Description
	priority := string(task.Priority)
	tags := []string(task.Tags)
	if tags == nil {
		tags = []string{}
	}
	completed := task.IsCompleted
	position := task.Position
	return &UpdateTaskRequest{
		Title:          &title,
		Description:    &description,
		Priority:       &priority,
		Tags:           &tags,
		StartDate:      task.StartDate,
		DueDate:        task.DueDate,
		ClearStartDate: task.StartDate == nil,
		ClearDueDate:   task.DueDate == nil,
		IsCompleted:    &completed,
		Position:       &position,
	}
}

// ApplyUpdateRequest เขียน field ที่ส่งมาลงใน task
func ApplyUpdateRequest(task *models.Task, req *UpdateTaskRequest) {
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		task.Priority = models.Priority(*req.Priority)
	}
	if req.Tags != nil {
		task.Tags = pq.StringArray(*req.Tags)
	}
	if req.ClearStartDate {
		task.StartDate = nil
	} else if req.StartDate != nil {
		task.StartDate = req.StartDate
	}
	if req.ClearDueDate {
		task.DueDate = nil
	} else if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.IsCompleted != nil {
		task.IsCompleted = *req.IsCompleted
	}
	if req.Position != nil {
		task.Position = *req.Position
	}
}

func StatsToResponse(s views.Stats) StatsResponse {
	return StatsResponse{
		Total:     s.Total,
		Completed: s.Completed,
		Pending:   s.Pending,
		Overdue:   s.Overdue,
	}
}

// ViewsToResponse แปลงผล Classify พร้อม flag overdue ณ เวลา now
func ViewsToResponse(v views.Views, stats views.Stats, now time.Time) *ViewsResponse {
	withOverdue := func(tasks []models.Task) []TaskResponse {
		out := TasksToTaskResponses(tasks)
		for i := range out {
			out[i].Overdue = views.IsOverdue(tasks[i], now)
		}
		return out
	}
	return &ViewsResponse{
		Date:      now.Format("2006-01-02"),
		TimeZone:  now.Location().String(),
		Today:     withOverdue(v.Today),
		Future:    withOverdue(v.Future),
		Migration: withOverdue(v.Migration),
		Stats:     StatsToResponse(stats),
	}
}

func TaskChangeToMessage(change *ports.TaskChange) *TaskChangeMessage {
	return &TaskChangeMessage{
		Type:       string(change.Type),
		UserID:     change.UserID,
		TaskID:     change.TaskID,
		Task:       TaskToTaskResponse(change.Task),
		MutationID: change.MutationID,
		At:         change.At,
	}
}

func MessageToTaskChange(msg *TaskChangeMessage) *ports.TaskChange {
	change := &ports.TaskChange{
		Type:       ports.ChangeType(msg.Type),
		UserID:     msg.UserID,
		TaskID:     msg.TaskID,
		MutationID: msg.MutationID,
		At:         msg.At,
	}
	if msg.Task != nil {
		t := TaskResponseToTask(msg.Task)
		change.Task = &t
	}
	return change
}

func AcceptPlanRequestToPlan(req *AcceptPlanRequest) plan.Plan {
	toItems := func(in []PlanItemRequest) []plan.Item {
		if len(in) == 0 {
			return nil
		}
		out := make([]plan.Item, 0, len(in))
		for _, it := range in {
			out = append(out, plan.Item{Title: it.Title, Description: it.Description})
		}
		return out
	}
	return plan.Plan{
		TasksDaily:  toItems(req.TasksDaily),
		TasksFuture: toItems(req.TasksFuture),
	}
}

func ChatMessagesToPort(in []ChatMessage) []ports.ChatMessage {
	out := make([]ports.ChatMessage, 0, len(in))
	for _, m := range in {
		out = append(out, ports.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
