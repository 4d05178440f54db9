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

// AssignmentHandler exposes assignment and rubric routes.
type AssignmentHandler struct {
	assignments service.AssignmentService
	rubrics     service.RubricService
	logger      zerolog.Logger
}

// NewAssignmentHandler constructs an assignment handler.
func NewAssignmentHandler(assignments service.AssignmentService, rubrics service.RubricService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignments: assignments,
		rubrics:     rubrics,
		logger:      logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register wires assignment routes.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Get("/class/:classId", h.listByClass)
	router.Get("/single/:id", h.get)
	router.Post("", h.create)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Get("/:id/rubric", h.getRubric)
	router.Put("/:id/rubric", h.saveRubric)
}

func (h *AssignmentHandler) listByClass(c *fiber.Ctx) error {
	classID, err := parseUintParam(c, "classId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid class id")
	}

	assignments, err := h.assignments.ListByClass(c.Context(), classID, middleware.UserID(c))
	if err != nil {
		return h.mapAssignmentError(c, err, "failed to list assignments")
	}
	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	assignment, err := h.assignments.Get(c.Context(), id, middleware.UserID(c))
	if err != nil {
		return h.mapAssignmentError(c, err, "failed to get assignment")
	}
	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	var payload dto.AssignmentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.assignments.Create(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		return h.mapAssignmentError(c, err, "failed to create assignment")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	var payload dto.AssignmentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	assignment, err := h.assignments.Update(c.Context(), id, middleware.UserID(c), payload)
	if err != nil {
		return h.mapAssignmentError(c, err, "failed to update assignment")
	}
	return utils.SendSuccess(c, "assignment updated", assignment)
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	if err := h.assignments.Delete(c.Context(), id, middleware.UserID(c)); err != nil {
		return h.mapAssignmentError(c, err, "failed to delete assignment")
	}
	return utils.SendSuccess(c, "assignment deleted", nil)
}

func (h *AssignmentHandler) getRubric(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	rubric, err := h.rubrics.Get(c.Context(), id, middleware.UserID(c))
	if err != nil {
		return h.mapAssignmentError(c, err, "failed to get rubric")
	}
	return utils.SendSuccess(c, "rubric retrieved", dto.RubricUploadResponse{Rubric: rubric})
}

func (h *AssignmentHandler) saveRubric(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	var payload dto.RubricUploadResponse
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	rubric, err := h.rubrics.Save(c.Context(), id, middleware.UserID(c), payload.Rubric)
	if err != nil {
		return h.mapAssignmentError(c, err, "failed to save rubric")
	}
	return utils.SendSuccess(c, "rubric saved", dto.RubricUploadResponse{Rubric: rubric})
}

func (h *AssignmentHandler) mapAssignmentError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound), errors.Is(err, service.ErrClassroomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotClassTeacher), errors.Is(err, service.ErrNotClassMember):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	default:
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
