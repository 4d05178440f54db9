package dto

import (
	"time"

	"github.com/tallyrus/pergi-api/internal/models"
)

// TemplateCreateRequest describes the payload for authoring a new template.
// Convos always start empty and the template starts private.
type TemplateCreateRequest struct {
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description"`
	Image       string           `json:"image"`
	Icon        string           `json:"icon"`
	Blocks      models.BlockList `json:"template" validate:"required,min=1"`
}

// EmptyFields lists the required fields missing from the payload, matching
// the inline validation surfaced next to the authoring form.
func (r TemplateCreateRequest) EmptyFields() []string {
	fields := make([]string, 0, 2)
	if r.Title == "" {
		fields = append(fields, "title")
	}
	if len(r.Blocks) == 0 {
		fields = append(fields, "template")
	}
	return fields
}

// TemplateUpdateRequest describes a partial template update. A non-nil
// Convos replaces the stored transcript wholesale.
type TemplateUpdateRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Image       *string           `json:"image"`
	Icon        *string           `json:"icon"`
	Public      *bool             `json:"public"`
	Blocks      *models.BlockList `json:"template"`
	Convos      *models.TurnList  `json:"convos"`
}

// TemplateResponse is the serialized template returned to its owner.
type TemplateResponse struct {
	ID          uint             `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Image       string           `json:"image"`
	Icon        string           `json:"icon"`
	Public      bool             `json:"public"`
	Blocks      models.BlockList `json:"template"`
	Convos      models.TurnList  `json:"convos"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// PublicTemplateResponse is the gallery projection: no owner, no transcript.
type PublicTemplateResponse struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Image       string           `json:"image"`
	Icon        string           `json:"icon"`
	Blocks      models.BlockList `json:"template"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// NewTemplateResponse converts a model into a DTO.
func NewTemplateResponse(model models.Template) TemplateResponse {
	blocks := model.Blocks
	if blocks == nil {
		blocks = models.BlockList{}
	}
	convos := model.Convos
	if convos == nil {
		convos = models.TurnList{}
	}
	return TemplateResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Image:       model.Image,
		Icon:        model.Icon,
		Public:      model.Public,
		Blocks:      blocks,
		Convos:      convos,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewTemplateResponseSlice converts a slice of models into DTOs.
func NewTemplateResponseSlice(templates []models.Template) []TemplateResponse {
	responses := make([]TemplateResponse, 0, len(templates))
	for _, template := range templates {
		responses = append(responses, NewTemplateResponse(template))
	}
	return responses
}

// NewPublicTemplateResponse projects a template for the shared gallery.
func NewPublicTemplateResponse(model models.Template) PublicTemplateResponse {
	blocks := model.Blocks
	if blocks == nil {
		blocks = models.BlockList{}
	}
	return PublicTemplateResponse{
		Title:       model.Title,
		Description: model.Description,
		Image:       model.Image,
		Icon:        model.Icon,
		Blocks:      blocks,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewPublicTemplateResponseSlice projects templates for the gallery listing.
func NewPublicTemplateResponseSlice(templates []models.Template) []PublicTemplateResponse {
	responses := make([]PublicTemplateResponse, 0, len(templates))
	for _, template := range templates {
		responses = append(responses, NewPublicTemplateResponse(template))
	}
	return responses
}
