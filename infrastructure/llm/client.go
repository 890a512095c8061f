package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bullet-ai/domain/ports"
	"bullet-ai/pkg/logger"
	"bullet-ai/pkg/utils"
)

const (
	maxResponseBytes = 4 << 20
	maxErrorBody     = 2000
)

// Client - OpenAI-compatible chat completion client ที่ลอง base url ตามลำดับ
type Client struct {
	httpClient *http.Client
}

type Config struct {
	Timeout time.Duration
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// NewClientWithHTTP ใช้ http.Client ที่กำหนดเอง (test)
func NewClientWithHTTP(hc *http.Client) *Client {
	return &Client{httpClient: hc}
}

var _ ports.LLMPort = (*Client)(nil)

type chatRequest struct {
	Model       string              `json:"model"`
	Messages    []ports.ChatMessage `json:"messages"`
	Stream      bool                `json:"stream"`
	Temperature float64             `json:"temperature"`
}

// Complete ลองทีละ base url; 2xx แรกชนะ
// ผลลัพธ์เมื่อไม่สำเร็จตัดสินจาก attempt สุดท้าย: network → *LLMNetworkError, non-2xx → *LLMStatusError
func (c *Client) Complete(ctx context.Context, req *ports.ChatCompletionRequest) (*ports.ChatCompletionResult, error) {
	if len(req.BaseURLs) == 0 {
		return nil, errors.New("no base url to try")
	}

	payload, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Stream:      false,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var (
		tried   []string
		lastErr error
	)
	for _, base := range req.BaseURLs {
		tried = append(tried, base)

		status, body, err := c.post(ctx, base, req.APIKey, payload)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.WarnContext(ctx, "LLM network error, trying next base", "base_url", base, "error", err)
			lastErr = &ports.LLMNetworkError{BaseTried: append([]string(nil), tried...), Err: err}
			continue
		}

		if status < 200 || status > 299 {
			logger.WarnContext(ctx, "LLM returned non-2xx", "base_url", base, "status", status)
			lastErr = &ports.LLMStatusError{StatusCode: status, Body: utils.TruncateRunes(strings.TrimSpace(string(body)), maxErrorBody), BaseURL: base}
			continue
		}

		env, err := DecodeEnvelope(body)
		if err != nil {
			logger.ErrorContext(ctx, "LLM response shape not recognized", "base_url", base, "bytes", len(body))
			return nil, fmt.Errorf("%w (from %s)", err, base)
		}

		logger.InfoContext(ctx, "LLM completion ok", "base_url", base, "shape", env.Shape, "attempts", len(tried))
		return &ports.ChatCompletionResult{
			Content: env.Text,
			BaseURL: base,
			Shape:   string(env.Shape),
		}, nil
	}

	// network error ตัวสุดท้ายต้องรายงานทุก base ที่ลอง
	var netErr *ports.LLMNetworkError
	if errors.As(lastErr, &netErr) {
		netErr.BaseTried = tried
	}
	return nil, lastErr
}

func (c *Client) post(ctx context.Context, base, apiKey string, payload []byte) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
