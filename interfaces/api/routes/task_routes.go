package routes

import (
	"github.com/gofiber/fiber/v2"

	"bullet-ai/interfaces/api/handlers"
	"bullet-ai/interfaces/api/middleware"
)

func SetupTaskRoutes(api fiber.Router, h *handlers.Handlers) {
	tasks := api.Group("/tasks")
	tasks.Use(middleware.Protected(h.JWTSecret, h.JWTAudience))
	tasks.Use(middleware.MutationIDMiddleware())

	tasks.Get("/", h.TaskHandler.ListTasks)
	tasks.Get("/views", h.TaskHandler.GetViews)
	tasks.Get("/stats", h.TaskHandler.GetStats)
	tasks.Put("/reorder", h.TaskHandler.ReorderTasks)
	tasks.Post("/", h.TaskHandler.CreateTask)
	tasks.Get("/:id", h.TaskHandler.GetTask)
	tasks.Put("/:id", h.TaskHandler.UpdateTask)
	tasks.Post("/:id/toggle", h.TaskHandler.ToggleTask)
	tasks.Post("/:id/migrate", h.TaskHandler.MigrateTask)
	tasks.Post("/:id/schedule", h.TaskHandler.ScheduleTask)
	tasks.Delete("/:id", h.TaskHandler.DeleteTask)

	plans := api.Group("/plans")
	plans.Use(middleware.Protected(h.JWTSecret, h.JWTAudience))
	plans.Use(middleware.MutationIDMiddleware())
	plans.Post("/accept", h.TaskHandler.AcceptPlan)
}
