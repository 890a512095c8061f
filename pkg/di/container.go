package di

import (
	"context"
	"errors"

	"bullet-ai/application/serviceimpl"
	"bullet-ai/domain/ports"
	"bullet-ai/domain/repositories"
	"bullet-ai/domain/services"
	"bullet-ai/infrastructure/llm"
	"bullet-ai/infrastructure/messaging"
	natspkg "bullet-ai/infrastructure/nats"
	"bullet-ai/infrastructure/postgres"
	redispkg "bullet-ai/infrastructure/redis"
	"bullet-ai/infrastructure/websocket"
	"bullet-ai/interfaces/api/handlers"
	"bullet-ai/pkg/config"
	"bullet-ai/pkg/logger"
	"bullet-ai/pkg/scheduler"

	"gorm.io/gorm"
)

// RolloverJobID - job ที่แจ้ง client ตอนเที่ยงคืนให้คำนวณ today/future ใหม่
const RolloverJobID = "views-rollover"

type Container struct {
	// Configuration
	Config *config.Config

	// Infrastructure
	DB             *gorm.DB
	RedisClient    *redispkg.Client // Redis client สำหรับ cache (optional)
	NATSClient     *natspkg.Client  // NATS connection + JetStream (optional)
	NATSSubscriber *natspkg.Subscriber
	LLMClient      ports.LLMPort
	EventScheduler scheduler.EventScheduler

	// Messaging Ports
	ChangeFeed ports.ChangeFeedPort // NATS หรือ in-process

	// Repositories
	TaskRepository repositories.TaskRepository

	// Services
	TaskService      services.TaskService
	AssistantService services.AssistantService

	// WebSocket & Broadcasting
	WebSocketManager  *websocket.WebSocketManager
	ChangeBroadcaster *websocket.ChangeBroadcaster
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Initialize() error {
	if err := c.initConfig(); err != nil {
		return err
	}

	if err := c.initLogger(); err != nil {
		return err
	}

	if err := c.initInfrastructure(); err != nil {
		return err
	}

	if err := c.initRepositories(); err != nil {
		return err
	}

	if err := c.initServices(); err != nil {
		return err
	}

	if err := c.initBroadcaster(); err != nil {
		return err
	}

	if err := c.initScheduler(); err != nil {
		return err
	}

	return nil
}

func (c *Container) initConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.JWT.Secret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	c.Config = cfg
	return nil
}

func (c *Container) initLogger() error {
	logConfig := logger.Config{
		Level:      c.Config.Log.Level,
		Format:     c.Config.Log.Format,
		Output:     c.Config.Log.Output,
		FilePath:   c.Config.Log.FilePath,
		MaxSize:    c.Config.Log.MaxSize,
		MaxBackups: c.Config.Log.MaxBackups,
		MaxAge:     c.Config.Log.MaxAge,
		Compress:   c.Config.Log.Compress,
		AddSource:  c.Config.IsDevelopment(),
	}

	if err := logger.Init(logConfig); err != nil {
		return err
	}

	logger.Info("Logger initialized",
		"level", c.Config.Log.Level,
		"format", c.Config.Log.Format,
		"output", c.Config.Log.Output,
	)
	return nil
}

func (c *Container) initInfrastructure() error {
	dbConfig := postgres.DatabaseConfig{
		Host:     c.Config.Database.Host,
		Port:     c.Config.Database.Port,
		User:     c.Config.Database.User,
		Password: c.Config.Database.Password,
		DBName:   c.Config.Database.DBName,
		SSLMode:  c.Config.Database.SSLMode,
		LogLevel: c.Config.Database.LogLevel,
	}

	db, err := postgres.NewDatabase(dbConfig)
	if err != nil {
		return err
	}
	c.DB = db
	logger.Info("Database connected", "host", c.Config.Database.Host, "db", c.Config.Database.DBName)

	if err := postgres.Migrate(db); err != nil {
		return err
	}
	logger.Info("Database migrated")

	// Redis (optional - graceful degradation)
	if c.Config.Redis.URL != "" {
		redisClient, err := redispkg.NewClient(&c.Config.Redis)
		if err != nil {
			logger.Warn("Redis client initialization failed (cache disabled)", "error", err)
		} else {
			c.RedisClient = redisClient
		}
	}

	// NATS (optional) - ไม่มีก็ใช้ feed ใน process (instance เดียว)
	if c.Config.NATS.URL != "" {
		natsClient, err := natspkg.NewClient(natspkg.ClientConfig{
			URL:           c.Config.NATS.URL,
			SubjectPrefix: c.Config.NATS.SubjectPrefix,
		})
		if err != nil {
			logger.Warn("NATS client initialization failed (using in-process change feed)", "error", err)
		} else {
			c.NATSClient = natsClient
		}
	}
	c.initMessagingPorts()

	c.LLMClient = llm.NewClient(llm.Config{Timeout: c.Config.LLM.Timeout})
	c.WebSocketManager = websocket.NewManager()

	return nil
}

func (c *Container) initMessagingPorts() {
	if c.NATSClient != nil {
		c.NATSSubscriber = natspkg.NewSubscriber(c.NATSClient)
		c.ChangeFeed = messaging.NewNATSChangeFeed(natspkg.NewPublisher(c.NATSClient), c.NATSSubscriber)
		logger.Info("Change feed ready", "transport", "nats", "prefix", c.Config.NATS.SubjectPrefix)
		return
	}
	c.ChangeFeed = messaging.NewLocalChangeFeed()
	logger.Info("Change feed ready", "transport", "local")
}

func (c *Container) initRepositories() error {
	c.TaskRepository = postgres.NewTaskRepository(c.DB)
	logger.Info("Repositories initialized")
	return nil
}

func (c *Container) initServices() error {
	if c.RedisClient != nil {
		c.TaskService = serviceimpl.NewTaskServiceWithCache(c.TaskRepository, c.ChangeFeed, c.RedisClient, c.Config.Redis.TaskTTL)
		logger.Info("Task service initialized with Redis cache", "ttl", c.Config.Redis.TaskTTL)
	} else {
		c.TaskService = serviceimpl.NewTaskService(c.TaskRepository, c.ChangeFeed)
		logger.Info("Task service initialized")
	}

	c.AssistantService = serviceimpl.NewAssistantService(c.LLMClient, c.Config.LLM)
	if c.Config.LLM.APIKey == "" || c.Config.LLM.Model == "" {
		logger.Warn("LLM_API_KEY / LLM_MODEL not set: /api/ai requires apiKey and model in the request body")
	}
	return nil
}

func (c *Container) initBroadcaster() error {
	c.ChangeBroadcaster = websocket.NewChangeBroadcaster(c.ChangeFeed, c.WebSocketManager)
	return c.ChangeBroadcaster.Start()
}

func (c *Container) initScheduler() error {
	loc := c.Config.Location()
	c.EventScheduler = scheduler.NewEventScheduler(loc)

	if err := c.EventScheduler.AddJob(RolloverJobID, c.Config.Realtime.RolloverCron, c.ChangeBroadcaster.BroadcastRollover); err != nil {
		return err
	}

	c.EventScheduler.Start()
	logger.Info("Scheduler initialized", "rollover_cron", c.Config.Realtime.RolloverCron, "tz", loc.String())
	return nil
}

func (c *Container) Cleanup() error {
	logger.Info("Starting cleanup...")

	if c.EventScheduler != nil && c.EventScheduler.IsRunning() {
		c.EventScheduler.Stop()
	}

	if c.ChangeBroadcaster != nil {
		c.ChangeBroadcaster.Stop()
	}

	if c.ChangeFeed != nil {
		if err := c.ChangeFeed.Close(); err != nil {
			logger.Warn("Failed to close change feed", "error", err)
		}
	}

	if c.WebSocketManager != nil {
		c.WebSocketManager.Stop()
		logger.Info("WebSocket manager stopped")
	}

	if c.NATSClient != nil {
		if err := c.NATSClient.Close(); err != nil {
			logger.Warn("Failed to close NATS connection", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			logger.Warn("Failed to close Redis connection", "error", err)
		} else {
			logger.Info("Redis connection closed")
		}
	}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("Failed to close database connection", "error", err)
			} else {
				logger.Info("Database connection closed")
			}
		}
	}

	logger.Info("Cleanup completed")
	return logger.Close()
}

func (c *Container) GetConfig() *config.Config {
	return c.Config
}

func (c *Container) GetHandlerServices() *handlers.Services {
	return &handlers.Services{
		TaskService:      c.TaskService,
		AssistantService: c.AssistantService,
		WebSocketManager: c.WebSocketManager,
		Location:         c.Config.Location(),
		JWTSecret:        c.Config.JWT.Secret,
		JWTAudience:      c.Config.JWT.Audience,
		AIRateLimit:      c.Config.LLM.RateLimit,
		HealthChecks:     c.healthChecks(),
		StreamStatus:     c.streamStatus(),
	}
}

func (c *Container) healthChecks() []handlers.HealthCheck {
	checks := []handlers.HealthCheck{{
		Name: "database",
		Check: func(ctx context.Context) error {
			sqlDB, err := c.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if c.RedisClient != nil {
		checks = append(checks, handlers.HealthCheck{Name: "redis", Check: c.RedisClient.Ping})
	}
	if c.NATSClient != nil {
		checks = append(checks, handlers.HealthCheck{
			Name:  "nats",
			Check: func(context.Context) error { return c.NATSClient.Ping() },
		})
	}
	return checks
}

func (c *Container) streamStatus() handlers.StreamStatusFunc {
	if c.NATSClient == nil {
		return nil
	}
	return func(ctx context.Context) (any, error) {
		return c.NATSClient.GetStatus(ctx)
	}
}
