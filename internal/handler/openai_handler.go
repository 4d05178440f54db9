package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/tallyrus/pergi-api/internal/dto"
	"github.com/tallyrus/pergi-api/internal/middleware"
	"github.com/tallyrus/pergi-api/internal/service"
	"github.com/tallyrus/pergi-api/internal/utils"
)

// OpenAIHandler exposes grading and one-off chat routes.
type OpenAIHandler struct {
	grading service.GradingService
	chat    service.ChatService
	logger  zerolog.Logger
}

// NewOpenAIHandler constructs an OpenAI handler.
func NewOpenAIHandler(grading service.GradingService, chat service.ChatService, logger zerolog.Logger) *OpenAIHandler {
	return &OpenAIHandler{
		grading: grading,
		chat:    chat,
		logger:  logger.With().Str("component", "openai_handler").Logger(),
	}
}

// Register wires grading and chat routes.
func (h *OpenAIHandler) Register(router fiber.Router) {
	router.Get("/gradeall/:assignmentId", h.gradeAll)
	router.Post("/function-call", h.functionCall)
}

func (h *OpenAIHandler) gradeAll(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "assignmentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	result, err := h.grading.GradeAll(c.Context(), assignmentID, middleware.UserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAssignmentNotFound), errors.Is(err, service.ErrClassroomNotFound):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotClassTeacher):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrNoRubric):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("grading run failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "grading run failed")
		}
	}
	return utils.SendSuccess(c, "grading completed", result)
}

func (h *OpenAIHandler) functionCall(c *fiber.Ctx) error {
	var payload dto.ChatRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.chat.FunctionCall(c.Context(), payload)
	if err != nil {
		if errors.Is(err, service.ErrEmptyPrompt) || isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("chat request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "chat request failed")
	}
	return utils.SendSuccess(c, "chat response generated", result)
}
