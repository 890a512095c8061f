package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClients int

func (f fixedClients) GetTotalClients() int { return int(f) }

func monitoringApp(h *MonitoringHandler) *fiber.App {
	app := fiber.New()
	app.Get("/health", h.HealthCheck)
	app.Get("/stream", h.GetStreamStatus)
	return app
}

func TestHealthCheckReportsDependencies(t *testing.T) {
	ok := func(context.Context) error { return nil }
	h := NewMonitoringHandler([]HealthCheck{{Name: "database", Check: ok}, {Name: "redis", Check: ok}}, nil, fixedClients(3))

	resp, err := monitoringApp(h).Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			Status           string            `json:"status"`
			Dependencies     map[string]string `json:"dependencies"`
			ChangeFeed       string            `json:"change_feed"`
			WebSocketClients int               `json:"websocket_clients"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Data.Status)
	assert.Equal(t, map[string]string{"database": "ok", "redis": "ok"}, body.Data.Dependencies)
	assert.Equal(t, "local", body.Data.ChangeFeed)
	assert.Equal(t, 3, body.Data.WebSocketClients)
}

func TestHealthCheckDegraded(t *testing.T) {
	h := NewMonitoringHandler([]HealthCheck{{
		Name:  "redis",
		Check: func(context.Context) error { return errors.New("connection refused") },
	}}, nil, nil)

	resp, err := monitoringApp(h).Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestStreamStatus(t *testing.T) {
	resp, err := monitoringApp(NewMonitoringHandler(nil, nil, nil)).Test(httptest.NewRequest("GET", "/stream", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	stream := func(context.Context) (any, error) { return map[string]any{"name": "TASK_CHANGES", "messages": 4}, nil }
	resp, err = monitoringApp(NewMonitoringHandler(nil, stream, nil)).Test(httptest.NewRequest("GET", "/stream", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "TASK_CHANGES", body.Data["name"])
}
