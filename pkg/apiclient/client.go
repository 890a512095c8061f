// Package apiclient talks to the Bullet AI API. Client implements
// tasksync.Remote so a local replica can persist through the REST endpoints.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"bullet-ai/domain/dto"
	"bullet-ai/domain/models"
	"bullet-ai/pkg/plan"
	"bullet-ai/pkg/utils"
)

// APIError - response ที่ไม่ใช่ 2xx
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Config struct {
	BaseURL  string // http://localhost:8080
	Token    string
	TimeZone string // ส่งเป็น ?tz= ให้ views/plans
	Timeout  time.Duration
}

type Client struct {
	baseURL  string
	token    string
	timeZone string
	http     *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		timeZone: cfg.TimeZone,
		http:     &http.Client{Timeout: timeout},
	}
}

// envelope - รูปแบบ response มาตรฐานของ /api/v1
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ═══════════════════════════════════════════════════════════════════════════════
// tasksync.Remote
// ═══════════════════════════════════════════════════════════════════════════════

func (c *Client) Fetch(ctx context.Context) ([]models.Task, error) {
	var list dto.TaskListResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/tasks", nil, "", &list); err != nil {
		return nil, err
	}
	return responsesToTasks(list.Tasks), nil
}

func (c *Client) Insert(ctx context.Context, task models.Task, mutationID string) (models.Task, error) {
	var resp dto.TaskResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/tasks", dto.TaskToCreateRequest(&task), mutationID, &resp); err != nil {
		return models.Task{}, err
	}
	return dto.TaskResponseToTask(&resp), nil
}

// Update ส่งทุก field (replica ถือ row เต็ม) และใช้ clear flag แทน null
func (c *Client) Update(ctx context.Context, task models.Task, mutationID string) (models.Task, error) {
	var resp dto.TaskResponse
	if err := c.do(ctx, http.MethodPut, "/api/v1/tasks/"+task.ID.String(), dto.TaskToUpdateRequest(&task), mutationID, &resp); err != nil {
		return models.Task{}, err
	}
	return dto.TaskResponseToTask(&resp), nil
}

func (c *Client) Delete(ctx context.Context, id uuid.UUID, mutationID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tasks/"+id.String(), nil, mutationID, nil)
}

func (c *Client) Reorder(ctx context.Context, ids []uuid.UUID, mutationID string) error {
	return c.do(ctx, http.MethodPut, "/api/v1/tasks/reorder", dto.ReorderTasksRequest{IDs: ids}, mutationID, nil)
}

// ═══════════════════════════════════════════════════════════════════════════════
// Views / AI
// ═══════════════════════════════════════════════════════════════════════════════

func (c *Client) Views(ctx context.Context) (*dto.ViewsResponse, error) {
	var resp dto.ViewsResponse
	if err := c.do(ctx, http.MethodGet, c.withTZ("/api/v1/tasks/views"), nil, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AcceptPlan สร้าง task จาก plan (daily ได้ due สิ้นวันตาม tz ของ client)
func (c *Client) AcceptPlan(ctx context.Context, p plan.Plan, mutationID string) ([]models.Task, error) {
	req := dto.AcceptPlanRequest{
		TasksDaily:  planItems(p.TasksDaily),
		TasksFuture: planItems(p.TasksFuture),
	}
	var resp dto.AcceptPlanResponse
	if err := c.do(ctx, http.MethodPost, c.withTZ("/api/v1/plans/accept"), req, mutationID, &resp); err != nil {
		return nil, err
	}
	return responsesToTasks(resp.Created), nil
}

// ChatError - error body ของ /api/ai
type ChatError struct {
	StatusCode int
	Body       dto.AIErrorResponse
}

func (e *ChatError) Error() string {
	msg := fmt.Sprintf("assistant error %d: %s", e.StatusCode, e.Body.Error)
	if len(e.Body.BaseTried) > 0 {
		msg += " (tried " + strings.Join(e.Body.BaseTried, ", ") + ")"
	}
	return msg
}

// Chat เรียก /api/ai ซึ่งตอบ {reply, plan} ตรงๆ ไม่ผ่าน envelope
func (c *Client) Chat(ctx context.Context, req dto.AIChatRequest) (*dto.AIChatResponse, error) {
	status, body, err := c.send(ctx, http.MethodPost, "/api/ai", req, "")
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		chatErr := &ChatError{StatusCode: status}
		if jsonErr := json.Unmarshal(body, &chatErr.Body); jsonErr != nil || chatErr.Body.Error == "" {
			chatErr.Body.Error = strings.TrimSpace(string(body))
		}
		return nil, chatErr
	}
	var resp dto.AIChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode assistant response: %w", err)
	}
	return &resp, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// transport
// ═══════════════════════════════════════════════════════════════════════════════

func (c *Client) do(ctx context.Context, method, path string, in any, mutationID string, out any) error {
	status, body, err := c.send(ctx, method, path, in, mutationID)
	if err != nil {
		return err
	}
	if status == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if status < 200 || status >= 300 {
			return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if status < 200 || status >= 300 || !env.Success {
		apiErr := &APIError{StatusCode: status}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, in any, mutationID string) (int, []byte, error) {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if mutationID != "" {
		req.Header.Set(utils.MutationIDHeader, mutationID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) withTZ(path string) string {
	if c.timeZone == "" {
		return path
	}
	return path + "?tz=" + url.QueryEscape(c.timeZone)
}

func responsesToTasks(in []dto.TaskResponse) []models.Task {
	out := make([]models.Task, 0, len(in))
	for i := range in {
		out = append(out, dto.TaskResponseToTask(&in[i]))
	}
	return out
}

func planItems(in []plan.Item) []dto.PlanItemRequest {
	out := make([]dto.PlanItemRequest, 0, len(in))
	for _, it := range in {
		out = append(out, dto.PlanItemRequest{Title: it.Title, Description: it.Description})
	}
	return out
}
