package handlers

import (
	"time"

	"bullet-ai/domain/services"
	websocketManager "bullet-ai/infrastructure/websocket"
)

// Services contains all the services needed for handlers
type Services struct {
	TaskService      services.TaskService
	AssistantService services.AssistantService
	WebSocketManager *websocketManager.WebSocketManager
	Location         *time.Location // APP_TIMEZONE
	JWTSecret        string
	JWTAudience      string
	AIRateLimit      int
	HealthChecks     []HealthCheck
	StreamStatus     StreamStatusFunc // nil = ไม่มี NATS
}

// Handlers contains all HTTP handlers
type Handlers struct {
	TaskHandler       *TaskHandler
	AIHandler         *AIHandler
	MonitoringHandler *MonitoringHandler
	WebSocketManager  *websocketManager.WebSocketManager
	JWTSecret         string
	JWTAudience       string
	AIRateLimit       int
}

// NewHandlers creates a new instance of Handlers with all dependencies
func NewHandlers(services *Services) *Handlers {
	var clients ClientCounter
	if services.WebSocketManager != nil {
		clients = services.WebSocketManager
	}

	return &Handlers{
		TaskHandler:       NewTaskHandler(services.TaskService, services.Location),
		AIHandler:         NewAIHandler(services.AssistantService),
		MonitoringHandler: NewMonitoringHandler(services.HealthChecks, services.StreamStatus, clients),
		WebSocketManager:  services.WebSocketManager,
		JWTSecret:         services.JWTSecret,
		JWTAudience:       services.JWTAudience,
		AIRateLimit:       services.AIRateLimit,
	}
}
