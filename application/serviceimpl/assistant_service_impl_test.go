package serviceimpl

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bullet-ai/domain/dto"
	"bullet-ai/domain/ports"
	"bullet-ai/domain/services"
	"bullet-ai/pkg/config"
)

type fakeLLM struct {
	reply string
	err   error
	calls []*ports.ChatCompletionRequest
}

func (f *fakeLLM) Complete(_ context.Context, req *ports.ChatCompletionRequest) (*ports.ChatCompletionResult, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &ports.ChatCompletionResult{Content: f.reply, BaseURL: req.BaseURLs[0]}, nil
}

func userMessages(n int) []dto.ChatMessage {
	out := make([]dto.ChatMessage, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, dto.ChatMessage{Role: "user", Content: fmt.Sprintf("msg %d", i)})
	}
	return out
}

func TestChatMissingConfigNeverCallsUpstream(t *testing.T) {
	llm := &fakeLLM{}
	svc := NewAssistantService(llm, config.LLMConfig{})

	_, err := svc.Chat(context.Background(), &dto.AIChatRequest{Messages: userMessages(1), APIKey: "sk"})
	assert.ErrorIs(t, err, services.ErrMissingLLMConfig)
	assert.Empty(t, llm.calls)
}

func TestChatResolvesBodyBeforeEnv(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	svc := NewAssistantService(llm, config.LLMConfig{
		APIKey:          "env-key",
		Model:           "env-model",
		BaseURL:         "https://env.example/v1",
		FallbackBaseURL: config.DefaultFallbackBaseURL,
	})

	_, err := svc.Chat(context.Background(), &dto.AIChatRequest{
		Messages: userMessages(1),
		APIKey:   "body-key",
		BaseURL:  "https://body.example/v1/",
	})
	require.NoError(t, err)
	require.Len(t, llm.calls, 1)

	call := llm.calls[0]
	assert.Equal(t, "body-key", call.APIKey)
	assert.Equal(t, "env-model", call.Model)
	assert.Equal(t, []string{"https://body.example/v1", config.DefaultFallbackBaseURL}, call.BaseURLs)
	assert.InDelta(t, 0.3, call.Temperature, 1e-9)
}

func TestChatFallbackOnlyWhenNoBaseConfigured(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	svc := NewAssistantService(llm, config.LLMConfig{APIKey: "k", Model: "m"})

	_, err := svc.Chat(context.Background(), &dto.AIChatRequest{Messages: userMessages(1)})
	require.NoError(t, err)
	assert.Equal(t, []string{config.DefaultFallbackBaseURL}, llm.calls[0].BaseURLs)
}

func TestChatCapsHistoryAndAddsTaskSummary(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	svc := NewAssistantService(llm, config.LLMConfig{APIKey: "k", Model: "m", HistoryLimit: 8})
	due := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := svc.Chat(context.Background(), &dto.AIChatRequest{
		Messages: userMessages(12),
		Tasks:    []dto.TaskContext{{Title: "Buy milk", DueDate: &due, Priority: "high"}},
	})
	require.NoError(t, err)

	msgs := llm.calls[0].Messages
	require.Len(t, msgs, 10)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "system", msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "Buy milk (due 2020-01-02 (overdue), high priority)")
	assert.Equal(t, "msg 4", msgs[2].Content)
	assert.Equal(t, "msg 11", msgs[9].Content)
}

func TestChatExtractsPlanAndStripsIt(t *testing.T) {
	llm := &fakeLLM{reply: "Here is a plan.\n```json\n{\"tasksDaily\":[{\"title\":\"Draft outline\"}]}\n```\nGood luck!"}
	svc := NewAssistantService(llm, config.LLMConfig{APIKey: "k", Model: "m"})

	res, err := svc.Chat(context.Background(), &dto.AIChatRequest{Messages: userMessages(1)})
	require.NoError(t, err)
	require.NotNil(t, res.Plan)
	require.Len(t, res.Plan.TasksDaily, 1)
	assert.Equal(t, "Draft outline", res.Plan.TasksDaily[0].Title)
	assert.Equal(t, "Here is a plan.\n\nGood luck!", res.Reply)
}

func TestChatWithoutPlan(t *testing.T) {
	llm := &fakeLLM{reply: "  Just chatting.  "}
	svc := NewAssistantService(llm, config.LLMConfig{APIKey: "k", Model: "m"})

	res, err := svc.Chat(context.Background(), &dto.AIChatRequest{Messages: userMessages(1)})
	require.NoError(t, err)
	assert.Nil(t, res.Plan)
	assert.Equal(t, "Just chatting.", res.Reply)
}

func TestChatPropagatesUpstreamError(t *testing.T) {
	upstream := &ports.LLMStatusError{StatusCode: 429, Body: "slow down"}
	svc := NewAssistantService(&fakeLLM{err: upstream}, config.LLMConfig{APIKey: "k", Model: "m"})

	_, err := svc.Chat(context.Background(), &dto.AIChatRequest{Messages: userMessages(1)})
	assert.ErrorIs(t, err, upstream)
}

func TestCandidateBaseURLs(t *testing.T) {
	assert.Equal(t,
		[]string{"https://a.example/v1", "https://b.example"},
		CandidateBaseURLs("https://a.example/v1/", "", "https://a.example/v1", "https://b.example//"),
	)
}
