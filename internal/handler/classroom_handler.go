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

// ClassroomHandler exposes classroom management routes.
type ClassroomHandler struct {
	service service.ClassroomService
	logger  zerolog.Logger
}

// NewClassroomHandler constructs a classroom handler.
func NewClassroomHandler(service service.ClassroomService, logger zerolog.Logger) *ClassroomHandler {
	return &ClassroomHandler{
		service: service,
		logger:  logger.With().Str("component", "classroom_handler").Logger(),
	}
}

// Register wires classroom routes.
func (h *ClassroomHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Post("/join", h.join)
	router.Get("/:id", h.get)
	router.Delete("/:id", h.delete)
}

func (h *ClassroomHandler) list(c *fiber.Ctx) error {
	classrooms, err := h.service.List(c.Context(), middleware.UserID(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list classrooms")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list classrooms")
	}
	return utils.SendSuccess(c, "classrooms retrieved", classrooms)
}

func (h *ClassroomHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid classroom id")
	}

	classroom, err := h.service.Get(c.Context(), id, middleware.UserID(c))
	if err != nil {
		return h.mapClassroomError(c, err, "failed to get classroom")
	}
	return utils.SendSuccess(c, "classroom retrieved", classroom)
}

func (h *ClassroomHandler) create(c *fiber.Ctx) error {
	var payload dto.ClassroomCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	classroom, err := h.service.Create(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create classroom")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create classroom")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "classroom created", classroom)
}

func (h *ClassroomHandler) join(c *fiber.Ctx) error {
	var payload dto.ClassroomJoinRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	classroom, err := h.service.Join(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidJoinCode):
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrAlreadyMember):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		default:
			if isValidationError(err) {
				return utils.SendError(c, fiber.StatusBadRequest, err.Error())
			}
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to join classroom")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to join classroom")
		}
	}
	return utils.SendSuccess(c, "classroom joined", classroom)
}

func (h *ClassroomHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid classroom id")
	}

	if err := h.service.Delete(c.Context(), id, middleware.UserID(c)); err != nil {
		return h.mapClassroomError(c, err, "failed to delete classroom")
	}
	return utils.SendSuccess(c, "classroom deleted", nil)
}

func (h *ClassroomHandler) mapClassroomError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotClassMember), errors.Is(err, service.ErrNotClassTeacher):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
