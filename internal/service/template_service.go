package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tallyrus/pergi-api/internal/dto"
	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/observability"
	"github.com/tallyrus/pergi-api/internal/repository"
)

// ErrTemplateNotFound indicates the requested template does not exist.
var ErrTemplateNotFound = errors.New("template not found")

// ErrTemplateForbidden indicates a user touched a template they do not own.
var ErrTemplateForbidden = errors.New("template not owned by user")

// ErrEmptyFields indicates required authoring fields are missing.
var ErrEmptyFields = errors.New("please fill in all fields")

const galleryCacheKey = "templates:gallery"

// TemplateService exposes template authoring and gallery use cases.
type TemplateService interface {
	List(ctx context.Context, userID string) ([]dto.TemplateResponse, error)
	ListPublic(ctx context.Context) ([]dto.PublicTemplateResponse, error)
	Get(ctx context.Context, id uint, userID string) (dto.TemplateResponse, error)
	Create(ctx context.Context, userID string, payload dto.TemplateCreateRequest) (dto.TemplateResponse, error)
	Update(ctx context.Context, id uint, userID string, payload dto.TemplateUpdateRequest) (dto.TemplateResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
}

type templateService struct {
	repo      repository.TemplateRepository
	validator *validator.Validate
	cache     *redis.Client
	cacheTTL  time.Duration
	logger    zerolog.Logger
}

// NewTemplateService builds a new template service.
func NewTemplateService(repo repository.TemplateRepository, validate *validator.Validate, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) TemplateService {
	return &templateService{
		repo:      repo,
		validator: validate,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger.With().Str("component", "template_service").Logger(),
	}
}

func (s *templateService) List(ctx context.Context, userID string) ([]dto.TemplateResponse, error) {
	templates, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewTemplateResponseSlice(templates), nil
}

func (s *templateService) ListPublic(ctx context.Context) ([]dto.PublicTemplateResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, galleryCacheKey).Result(); err == nil {
			var responses []dto.PublicTemplateResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &responses); unmarshalErr == nil {
				observability.GalleryCacheRequests().WithLabelValues("hit").Inc()
				s.logger.Debug().Msg("gallery cache hit")
				return responses, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read gallery cache")
		}
		observability.GalleryCacheRequests().WithLabelValues("miss").Inc()
	}

	templates, err := s.repo.ListPublic(ctx)
	if err != nil {
		return nil, err
	}

	responses := dto.NewPublicTemplateResponseSlice(templates)

	if s.cache != nil {
		if payload, err := json.Marshal(responses); err == nil {
			if err := s.cache.Set(ctx, galleryCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store gallery cache")
			}
		}
	}

	return responses, nil
}

func (s *templateService) Get(ctx context.Context, id uint, userID string) (dto.TemplateResponse, error) {
	template, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return dto.TemplateResponse{}, err
	}
	return dto.NewTemplateResponse(template), nil
}

func (s *templateService) Create(ctx context.Context, userID string, payload dto.TemplateCreateRequest) (dto.TemplateResponse, error) {
	if fields := payload.EmptyFields(); len(fields) > 0 {
		return dto.TemplateResponse{}, ErrEmptyFields
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.TemplateResponse{}, err
	}

	template := models.Template{
		Title:       payload.Title,
		Description: payload.Description,
		Image:       payload.Image,
		Icon:        payload.Icon,
		Public:      false,
		UserID:      userID,
		Blocks:      payload.Blocks,
		Convos:      models.TurnList{},
	}

	if err := s.repo.Create(ctx, &template); err != nil {
		return dto.TemplateResponse{}, err
	}

	s.logger.Info().Uint("template_id", template.ID).Msg("template created")

	return dto.NewTemplateResponse(template), nil
}

func (s *templateService) Update(ctx context.Context, id uint, userID string, payload dto.TemplateUpdateRequest) (dto.TemplateResponse, error) {
	template, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return dto.TemplateResponse{}, err
	}

	if payload.Title != nil {
		template.Title = *payload.Title
	}
	if payload.Description != nil {
		template.Description = *payload.Description
	}
	if payload.Image != nil {
		template.Image = *payload.Image
	}
	if payload.Icon != nil {
		template.Icon = *payload.Icon
	}
	if payload.Public != nil {
		template.Public = *payload.Public
	}
	if payload.Blocks != nil {
		template.Blocks = *payload.Blocks
	}
	if payload.Convos != nil {
		// Transcript replacement is wholesale, never a merge.
		template.Convos = *payload.Convos
	}

	if err := s.repo.Update(ctx, &template); err != nil {
		return dto.TemplateResponse{}, err
	}

	s.invalidateGallery(ctx)
	s.logger.Info().Uint("template_id", template.ID).Msg("template updated")

	return dto.NewTemplateResponse(template), nil
}

func (s *templateService) Delete(ctx context.Context, id uint, userID string) error {
	if _, err := s.getOwned(ctx, id, userID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		return err
	}

	s.invalidateGallery(ctx)
	s.logger.Info().Uint("template_id", id).Msg("template deleted")
	return nil
}

func (s *templateService) getOwned(ctx context.Context, id uint, userID string) (models.Template, error) {
	template, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Template{}, ErrTemplateNotFound
		}
		return models.Template{}, err
	}
	if template.UserID != userID {
		return models.Template{}, ErrTemplateForbidden
	}
	return template, nil
}

func (s *templateService) invalidateGallery(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, galleryCacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate gallery cache")
	}
}
