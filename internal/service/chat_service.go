package service

import (
	"context"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/tallyrus/pergi-api/internal/dto"
	"github.com/tallyrus/pergi-api/pkg/ai"
)

// ChatService answers one-off prompts outside any template conversation.
type ChatService interface {
	FunctionCall(ctx context.Context, payload dto.ChatRequest) (dto.ChatResponse, error)
}

type chatService struct {
	chatter   ai.Chatter
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewChatService builds a new chat service.
func NewChatService(chatter ai.Chatter, logger zerolog.Logger) ChatService {
	return &chatService{
		chatter:   chatter,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "chat_service").Logger(),
	}
}

func (s *chatService) FunctionCall(ctx context.Context, payload dto.ChatRequest) (dto.ChatResponse, error) {
	input := strings.TrimSpace(s.sanitizer.Sanitize(payload.UserInput))
	if input == "" {
		return dto.ChatResponse{}, ErrEmptyPrompt
	}

	reply, err := s.chatter.Chat(ctx, input)
	if err != nil {
		return dto.ChatResponse{}, err
	}

	return dto.ChatResponse{ChatResponse: reply}, nil
}
