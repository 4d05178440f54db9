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

// TemplateHandler exposes template authoring, gallery and conversation routes.
type TemplateHandler struct {
	templates     service.TemplateService
	conversations service.ConversationService
	logger        zerolog.Logger
}

// NewTemplateHandler constructs a template handler.
func NewTemplateHandler(templates service.TemplateService, conversations service.ConversationService, logger zerolog.Logger) *TemplateHandler {
	return &TemplateHandler{
		templates:     templates,
		conversations: conversations,
		logger:        logger.With().Str("component", "template_handler").Logger(),
	}
}

// Register wires template routes. The gallery route precedes the id routes
// so "publics" is never parsed as a template id.
func (h *TemplateHandler) Register(router fiber.Router) {
	router.Get("/publics", h.listPublic)
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/converse", h.converse)
	router.Delete("/:id/convos", h.resetConvos)
}

func (h *TemplateHandler) list(c *fiber.Ctx) error {
	templates, err := h.templates.List(c.Context(), middleware.UserID(c))
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list templates")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list templates")
	}
	return utils.SendSuccess(c, "templates retrieved", templates)
}

func (h *TemplateHandler) listPublic(c *fiber.Ctx) error {
	templates, err := h.templates.ListPublic(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list public templates")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list public templates")
	}
	return utils.SendSuccess(c, "public templates retrieved", templates)
}

func (h *TemplateHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid template id")
	}

	template, err := h.templates.Get(c.Context(), id, middleware.UserID(c))
	if err != nil {
		return h.mapTemplateError(c, err, "failed to get template")
	}
	return utils.SendSuccess(c, "template retrieved", template)
}

func (h *TemplateHandler) create(c *fiber.Ctx) error {
	var payload dto.TemplateCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	template, err := h.templates.Create(c.Context(), middleware.UserID(c), payload)
	if err != nil {
		if errors.Is(err, service.ErrEmptyFields) {
			return utils.SendValidationError(c, err.Error(), payload.EmptyFields())
		}
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create template")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create template")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "template created", template)
}

func (h *TemplateHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid template id")
	}

	var payload dto.TemplateUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	template, err := h.templates.Update(c.Context(), id, middleware.UserID(c), payload)
	if err != nil {
		return h.mapTemplateError(c, err, "failed to update template")
	}
	return utils.SendSuccess(c, "template updated", template)
}

func (h *TemplateHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid template id")
	}

	if err := h.templates.Delete(c.Context(), id, middleware.UserID(c)); err != nil {
		return h.mapTemplateError(c, err, "failed to delete template")
	}
	return utils.SendSuccess(c, "template deleted", nil)
}

func (h *TemplateHandler) converse(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid template id")
	}

	var payload dto.ConverseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.conversations.Converse(c.Context(), id, middleware.UserID(c), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationBusy):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, service.ErrEmptyPrompt):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return h.mapTemplateError(c, err, "failed to process conversation turn")
		}
	}
	return utils.SendSuccess(c, "conversation updated", result)
}

func (h *TemplateHandler) resetConvos(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid template id")
	}

	if err := h.conversations.Reset(c.Context(), id, middleware.UserID(c)); err != nil {
		return h.mapTemplateError(c, err, "failed to reset conversation")
	}
	return utils.SendSuccess(c, "conversation reset", nil)
}

func (h *TemplateHandler) mapTemplateError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTemplateForbidden):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	default:
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg(message)
		return utils.SendError(c, fiber.StatusInternalServerError, message)
	}
}
