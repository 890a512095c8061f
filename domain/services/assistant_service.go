package services

import (
	"context"
	"errors"

	"bullet-ai/domain/dto"
	"bullet-ai/pkg/plan"
)

// ErrMissingLLMConfig ไม่มี api key หรือ model ทั้งใน body และ env (ไม่ยิง upstream)
var ErrMissingLLMConfig = errors.New("Missing LLM config: provide apiKey and model in body or set LLM_API_KEY and LLM_MODEL in env")

type ChatResult struct {
	Reply   string
	Plan    *plan.Plan
	BaseURL string
}

type AssistantService interface {
	Chat(ctx context.Context, req *dto.AIChatRequest) (*ChatResult, error)
}
