package dto

import "github.com/tallyrus/pergi-api/internal/models"

// FillPayload carries the per-block-index values a client filled in while
// using a template. Keys are positions in the block sequence.
type FillPayload struct {
	Texts      map[int]string   `json:"texts"`
	Selections map[int][]string `json:"selections"`
}

// ConverseRequest submits one conversation turn. Either Input holds free
// text, or Fill holds the template fill state from which the prompt is built.
type ConverseRequest struct {
	Input string       `json:"input"`
	Fill  *FillPayload `json:"fill"`
}

// ConverseResponse returns the full transcript after the AI reply.
type ConverseResponse struct {
	Convos models.TurnList `json:"convos"`
}

// ChatRequest is the pass-through chat payload.
type ChatRequest struct {
	UserInput string `json:"userInput" validate:"required"`
}

// ChatResponse carries the single AI chat reply.
type ChatResponse struct {
	ChatResponse string `json:"chatResponse"`
}
