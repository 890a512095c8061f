package dto

import (
	"time"

	"bullet-ai/pkg/plan"
)

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"max=20000"`
}

// TaskContext - สรุป task ปัจจุบันที่ client ส่งมาเป็น context ให้ assistant
type TaskContext struct {
	Title       string     `json:"title"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate"`
	IsCompleted bool       `json:"isCompleted"`
}

// AIChatRequest - body ของ POST /api/ai
type AIChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	APIKey   string        `json:"apiKey,omitempty"`
	Model    string        `json:"model,omitempty"`
	BaseURL  string        `json:"baseUrl,omitempty" validate:"omitempty,url"`
	Tasks    []TaskContext `json:"tasks,omitempty" validate:"omitempty,max=500"`
}

type AIChatResponse struct {
	Reply string     `json:"reply"`
	Plan  *plan.Plan `json:"plan"`
}

// AIErrorResponse - error body ของ /api/ai (ไม่ใช้ envelope ปกติ)
type AIErrorResponse struct {
	Error     string   `json:"error"`
	BaseTried []string `json:"baseTried,omitempty"`
	BaseURL   string   `json:"baseUrl,omitempty"`
}

type PlanItemRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

type AcceptPlanRequest struct {
	TasksDaily  []PlanItemRequest `json:"tasksDaily" validate:"omitempty,max=50,dive"`
	TasksFuture []PlanItemRequest `json:"tasksFuture" validate:"omitempty,max=50,dive"`
}

type AcceptPlanResponse struct {
	Created []TaskResponse `json:"created"`
}
