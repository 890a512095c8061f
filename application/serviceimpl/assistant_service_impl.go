package serviceimpl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bullet-ai/domain/dto"
	"bullet-ai/domain/ports"
	"bullet-ai/domain/services"
	"bullet-ai/pkg/config"
	"bullet-ai/pkg/logger"
	"bullet-ai/pkg/plan"
)

const systemPrompt = `You are a concise, friendly AI task butler; the user is your boss.
Answer briefly first. If the goal can be broken into small actionable tasks, append a JSON plan after your answer using this structure:
{
  "tasksDaily": [{"title": "...", "description": "..."}],
  "tasksFuture": [{"title": "...", "description": "..."}]
}
Rules: titles are short (<= 30 characters), descriptions are concise and actionable; omit a list when it is empty. Keep all free text outside the JSON.`

// maxContextTasks จำนวน task สูงสุดที่สรุปให้ model
const maxContextTasks = 50

type AssistantServiceImpl struct {
	llm ports.LLMPort
	cfg config.LLMConfig
}

func NewAssistantService(llm ports.LLMPort, cfg config.LLMConfig) *AssistantServiceImpl {
	return &AssistantServiceImpl{llm: llm, cfg: cfg}
}

var _ services.AssistantService = (*AssistantServiceImpl)(nil)

// Chat: resolve config (body → env → fallback) → เรียก LLM → แยก plan ออกจาก reply
func (s *AssistantServiceImpl) Chat(ctx context.Context, req *dto.AIChatRequest) (*services.ChatResult, error) {
	apiKey := firstNonEmpty(req.APIKey, s.cfg.APIKey)
	model := firstNonEmpty(req.Model, s.cfg.Model)
	if apiKey == "" || model == "" {
		return nil, services.ErrMissingLLMConfig
	}

	fallback := firstNonEmpty(s.cfg.FallbackBaseURL, config.DefaultFallbackBaseURL)
	bases := CandidateBaseURLs(firstNonEmpty(req.BaseURL, s.cfg.BaseURL, fallback), fallback)

	temperature := s.cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	messages := s.buildMessages(req)
	logger.InfoContext(ctx, "Assistant chat",
		"model", model,
		"messages", len(messages),
		"bases", len(bases),
	)

	res, err := s.llm.Complete(ctx, &ports.ChatCompletionRequest{
		APIKey:      apiKey,
		Model:       model,
		BaseURLs:    bases,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return nil, err
	}

	out := &services.ChatResult{Reply: strings.TrimSpace(res.Content), BaseURL: res.BaseURL}
	if p, span, ok := plan.Extract(res.Content); ok {
		out.Plan = &p
		out.Reply = plan.Strip(res.Content, span)
		logger.InfoContext(ctx, "Assistant proposed plan", "tasks", p.Len())
	}
	return out, nil
}

// buildMessages: system prompt + สรุป task (ถ้ามี) + history ล่าสุดไม่เกิน HistoryLimit
func (s *AssistantServiceImpl) buildMessages(req *dto.AIChatRequest) []ports.ChatMessage {
	messages := []ports.ChatMessage{{Role: "system", Content: systemPrompt}}
	if summary := summarizeTasks(req.Tasks, time.Now()); summary != "" {
		messages = append(messages, ports.ChatMessage{Role: "system", Content: summary})
	}

	history := dto.ChatMessagesToPort(req.Messages)
	limit := s.cfg.HistoryLimit
	if limit <= 0 {
		limit = 8
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return append(messages, history...)
}

func summarizeTasks(tasks []dto.TaskContext, now time.Time) string {
	if len(tasks) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("The user's current tasks:\n")
	for i, t := range tasks {
		if i == maxContextTasks {
			fmt.Fprintf(&sb, "... and %d more\n", len(tasks)-maxContextTasks)
			break
		}
		status := "open"
		if t.IsCompleted {
			status = "done"
		}
		due := "unscheduled"
		if t.DueDate != nil {
			due = "due " + t.DueDate.Format("2006-01-02")
			if !t.IsCompleted && t.DueDate.Before(now) {
				due += " (overdue)"
			}
		}
		fmt.Fprintf(&sb, "- [%s] %s (%s", status, t.Title, due)
		if t.Priority != "" {
			fmt.Fprintf(&sb, ", %s priority", t.Priority)
		}
		sb.WriteString(")\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// CandidateBaseURLs ตัด "/" ท้าย ตัดค่าว่างและค่าซ้ำ โดยคงลำดับ
func CandidateBaseURLs(urls ...string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimRight(strings.TrimSpace(u), "/")
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
