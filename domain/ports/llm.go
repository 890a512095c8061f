package ports

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════════
// LLM Port - OpenAI-compatible chat completion
// ═══════════════════════════════════════════════════════════════════════════════

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest - BaseURLs เรียงตามลำดับที่จะลอง (ตัวแรกสำเร็จก่อนชนะ)
type ChatCompletionRequest struct {
	APIKey      string
	Model       string
	BaseURLs    []string
	Messages    []ChatMessage
	Temperature float64
}

type ChatCompletionResult struct {
	Content string
	BaseURL string // base ที่ตอบสำเร็จ
	Shape   string // envelope ที่ถอดได้ เช่น "openai.chat"
}

// LLMPort - Interface สำหรับเรียก LLM
type LLMPort interface {
	Complete(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResult, error)
}

// ErrUnrecognizedResponse upstream ตอบ 2xx แต่ body ไม่ตรงกับ envelope ที่รู้จัก
var ErrUnrecognizedResponse = errors.New("unrecognized llm response shape")

// LLMNetworkError ทุก base url ล้มเหลวระดับ network
type LLMNetworkError struct {
	BaseTried []string
	Err       error
}

func (e *LLMNetworkError) Error() string {
	return fmt.Sprintf("network error to LLM (tried %s): %v", strings.Join(e.BaseTried, ", "), e.Err)
}

func (e *LLMNetworkError) Unwrap() error { return e.Err }

// LLMStatusError upstream ตอบ non-2xx
type LLMStatusError struct {
	StatusCode int
	Body       string
	BaseURL    string
}

func (e *LLMStatusError) Error() string {
	return fmt.Sprintf("LLM error: %d %s", e.StatusCode, e.Body)
}
