package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"bullet-ai/interfaces/api/handlers"
	"bullet-ai/interfaces/api/middleware"
	"bullet-ai/interfaces/api/routes"
	"bullet-ai/pkg/di"
	"bullet-ai/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	container := di.NewContainer()
	if err := container.Initialize(); err != nil {
		// logger อาจยังไม่ถูก init
		fmt.Fprintln(os.Stderr, "failed to initialize container:", err)
		os.Exit(1)
	}
	cfg := container.GetConfig()

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		AppName:               cfg.App.Name,
		BodyLimit:             4 * 1024 * 1024, // chat history + task context
		DisableStartupMessage: true,
	})

	// ลำดับสำคัญ: request id ต้องมาก่อน access log
	app.Use(recover.New())
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware())
	app.Use(middleware.CorsMiddleware(cfg.App.AllowedOrigins))

	h := handlers.NewHandlers(container.GetHandlerServices())
	routes.SetupRoutes(app, h, cfg.App.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			"port", cfg.App.Port,
			"env", cfg.App.Env,
			"timezone", cfg.App.TimeZone,
		)
		listenErr <- app.Listen(":" + cfg.App.Port)
	}()

	exitCode := 0
	select {
	case err := <-listenErr:
		if err != nil {
			logger.Error("Server failed to start", "error", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("Gracefully shutting down...")
		// websocket ที่ค้างอยู่ถูกตัดเมื่อหมดเวลา
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("Error shutting down server", "error", err)
		}
	}

	stop()
	if err := container.Cleanup(); err != nil {
		logger.Error("Error during cleanup", "error", err)
	}
	os.Exit(exitCode)
}
