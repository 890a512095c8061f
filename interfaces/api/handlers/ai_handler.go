package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"bullet-ai/domain/dto"
	"bullet-ai/domain/ports"
	"bullet-ai/domain/services"
	"bullet-ai/pkg/logger"
	"bullet-ai/pkg/utils"
)

// AIHandler - POST /api/ai ตอบเป็น {reply, plan} หรือ {error} (ไม่ใช้ envelope ปกติ)
type AIHandler struct {
	assistant services.AssistantService
}

func NewAIHandler(assistant services.AssistantService) *AIHandler {
	return &AIHandler{assistant: assistant}
}

func (h *AIHandler) Chat(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req dto.AIChatRequest
	if err := c.BodyParser(&req); err != nil {
		return aiError(c, fiber.StatusBadRequest, dto.AIErrorResponse{Error: "Invalid request body"})
	}
	if err := utils.ValidateStruct(&req); err != nil {
		logger.WarnContext(ctx, "AI request validation failed", "errors", utils.GetValidationErrors(err))
		return aiError(c, fiber.StatusBadRequest, dto.AIErrorResponse{Error: "Invalid request: messages are required"})
	}

	res, err := h.assistant.Chat(ctx, &req)
	if err != nil {
		var (
			netErr    *ports.LLMNetworkError
			statusErr *ports.LLMStatusError
		)
		switch {
		case errors.Is(err, services.ErrMissingLLMConfig):
			return aiError(c, fiber.StatusBadRequest, dto.AIErrorResponse{Error: err.Error()})
		case errors.As(err, &netErr):
			logger.WarnContext(ctx, "LLM unreachable", "base_tried", netErr.BaseTried, "error", netErr.Err)
			return aiError(c, fiber.StatusBadGateway, dto.AIErrorResponse{
				Error:     "Fetch to LLM failed: " + netErr.Err.Error(),
				BaseTried: netErr.BaseTried,
			})
		case errors.As(err, &statusErr):
			logger.WarnContext(ctx, "LLM returned error", "base_url", statusErr.BaseURL, "status", statusErr.StatusCode)
			return aiError(c, fiber.StatusInternalServerError, dto.AIErrorResponse{
				Error:   statusErr.Error(),
				BaseURL: statusErr.BaseURL,
			})
		case errors.Is(err, ports.ErrUnrecognizedResponse):
			return aiError(c, fiber.StatusInternalServerError, dto.AIErrorResponse{Error: err.Error()})
		}
		logger.ErrorContext(ctx, "AI chat failed", "error", err)
		return aiError(c, fiber.StatusInternalServerError, dto.AIErrorResponse{Error: "AI request failed"})
	}

	return c.Status(fiber.StatusOK).JSON(dto.AIChatResponse{
		Reply: res.Reply,
		Plan:  res.Plan,
	})
}

func aiError(c *fiber.Ctx, status int, body dto.AIErrorResponse) error {
	return c.Status(status).JSON(body)
}
