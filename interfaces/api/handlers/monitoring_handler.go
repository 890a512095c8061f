package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"bullet-ai/pkg/logger"
	"bullet-ai/pkg/utils"
)

// HealthCheck - dependency หนึ่งตัวที่ต้อง ping ได้ (database, redis, nats)
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// StreamStatusFunc - สถานะ JetStream stream (nil เมื่อใช้ feed ใน process)
type StreamStatusFunc func(ctx context.Context) (any, error)

// ClientCounter - WebSocket manager
type ClientCounter interface {
	GetTotalClients() int
}

type MonitoringHandler struct {
	checks  []HealthCheck
	stream  StreamStatusFunc
	clients ClientCounter
}

func NewMonitoringHandler(checks []HealthCheck, stream StreamStatusFunc, clients ClientCounter) *MonitoringHandler {
	return &MonitoringHandler{
		checks:  checks,
		stream:  stream,
		clients: clients,
	}
}

// HealthCheck GET /api/v1/monitoring/health
// ตรวจ dependency ทุกตัว; ตัวใดล้มเหลวตอบ 503 พร้อมรายละเอียด
func (h *MonitoringHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	status := "ok"
	results := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			logger.WarnContext(ctx, "Health check failed", "dependency", check.Name, "error", err)
			results[check.Name] = err.Error()
			status = "degraded"
			continue
		}
		results[check.Name] = "ok"
	}

	body := fiber.Map{
		"status":       status,
		"dependencies": results,
		"change_feed":  "local",
	}
	if h.stream != nil {
		body["change_feed"] = "nats"
	}
	if h.clients != nil {
		body["websocket_clients"] = h.clients.GetTotalClients()
	}

	if status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(utils.Response{Success: false, Data: body})
	}
	return utils.SuccessResponse(c, body)
}

// GetStreamStatus GET /api/v1/monitoring/stream
// ดึงสถานะของ JetStream stream ที่เก็บ task change
func (h *MonitoringHandler) GetStreamStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if h.stream == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "NATS not configured", nil)
	}

	status, err := h.stream(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to get stream status", "error", err)
		return utils.InternalServerErrorResponse(c)
	}

	return utils.SuccessResponse(c, status)
}
