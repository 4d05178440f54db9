package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tallyrus/pergi-api/internal/dto"
	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/prompt"
	"github.com/tallyrus/pergi-api/internal/repository"
	"github.com/tallyrus/pergi-api/pkg/ai"
)

// ErrConversationBusy indicates a turn is already in flight for the template.
var ErrConversationBusy = errors.New("a message is already being processed for this template")

// ErrEmptyPrompt indicates the rendered prompt carried no content.
var ErrEmptyPrompt = errors.New("prompt is empty")

// ConversationService runs template-bound chat turns.
type ConversationService interface {
	Converse(ctx context.Context, templateID uint, userID string, payload dto.ConverseRequest) (dto.ConverseResponse, error)
	Reset(ctx context.Context, templateID uint, userID string) error
}

type conversationService struct {
	repo      repository.TemplateRepository
	streamer  ai.Streamer
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger

	mu       sync.Mutex
	inFlight map[uint]struct{}
}

// NewConversationService builds a new conversation service.
func NewConversationService(repo repository.TemplateRepository, streamer ai.Streamer, logger zerolog.Logger) ConversationService {
	return &conversationService{
		repo:      repo,
		streamer:  streamer,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "conversation_service").Logger(),
		inFlight:  make(map[uint]struct{}),
	}
}

func (s *conversationService) Converse(ctx context.Context, templateID uint, userID string, payload dto.ConverseRequest) (dto.ConverseResponse, error) {
	if !s.acquire(templateID) {
		return dto.ConverseResponse{}, ErrConversationBusy
	}
	defer s.release(templateID)

	template, err := s.repo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ConverseResponse{}, ErrTemplateNotFound
		}
		return dto.ConverseResponse{}, err
	}
	if template.UserID != userID {
		return dto.ConverseResponse{}, ErrTemplateForbidden
	}

	input, err := s.resolveInput(template.Blocks, payload)
	if err != nil {
		return dto.ConverseResponse{}, err
	}

	convos := append(models.TurnList{}, template.Convos...)
	convos = append(convos, models.Turn{Role: models.RoleUser, Content: input})

	// The model only ever sees role and content, never local metadata.
	history := toAITurns(convos.Stripped())

	reply, err := s.streamer.ChatStream(ctx, history, nil)
	if err != nil {
		return dto.ConverseResponse{}, err
	}

	convos = append(convos, models.Turn{Role: models.RoleAssistant, Content: reply})
	template.Convos = convos

	if err := s.repo.Update(ctx, &template); err != nil {
		// The exchange already happened, so hand the transcript back anyway.
		s.logger.Error().Err(err).Uint("template_id", templateID).Msg("failed to persist conversation")
	}

	return dto.ConverseResponse{Convos: convos}, nil
}

func (s *conversationService) Reset(ctx context.Context, templateID uint, userID string) error {
	template, err := s.repo.GetByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}
	if template.UserID != userID {
		return ErrTemplateForbidden
	}

	template.Convos = models.TurnList{}
	if err := s.repo.Update(ctx, &template); err != nil {
		return err
	}

	s.logger.Info().Uint("template_id", templateID).Msg("conversation reset")
	return nil
}

// resolveInput prefers the structured fill payload and falls back to free text.
func (s *conversationService) resolveInput(blocks models.BlockList, payload dto.ConverseRequest) (string, error) {
	if payload.Fill != nil {
		fill := prompt.NewFillState()
		for index, text := range payload.Fill.Texts {
			fill.SetText(index, text)
		}
		for index, tags := range payload.Fill.Selections {
			for _, tag := range tags {
				fill.Toggle(index, tag)
			}
		}
		built := prompt.Build(blocks, fill)
		if built == "" {
			return "", ErrEmptyPrompt
		}
		return built, nil
	}

	input := strings.TrimSpace(s.sanitizer.Sanitize(payload.Input))
	if input == "" {
		return "", ErrEmptyPrompt
	}
	return input, nil
}

func (s *conversationService) acquire(templateID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[templateID]; busy {
		return false
	}
	s.inFlight[templateID] = struct{}{}
	return true
}

func (s *conversationService) release(templateID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, templateID)
}

func toAITurns(turns models.TurnList) []ai.Turn {
	out := make([]ai.Turn, 0, len(turns))
	for _, turn := range turns {
		out = append(out, ai.Turn{Role: turn.Role, Content: turn.Content})
	}
	return out
}
