package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tallyrus/pergi-api/internal/dto"
	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/repository"
)

// ErrInvalidJoinCode indicates no classroom matches the submitted code.
var ErrInvalidJoinCode = errors.New("invalid join code")

// ErrAlreadyMember indicates the user already belongs to the classroom.
var ErrAlreadyMember = errors.New("user is already a member of this class")

// ErrNotClassMember indicates the caller neither teaches nor attends the
// classroom.
var ErrNotClassMember = errors.New("user is not a member of this class")

// ClassroomService manages classrooms and their membership.
type ClassroomService interface {
	List(ctx context.Context, userID string) ([]dto.ClassroomResponse, error)
	Get(ctx context.Context, id uint, userID string) (dto.ClassroomResponse, error)
	Create(ctx context.Context, userID string, payload dto.ClassroomCreateRequest) (dto.ClassroomResponse, error)
	Join(ctx context.Context, userID string, payload dto.ClassroomJoinRequest) (dto.ClassroomResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
}

type classroomService struct {
	repo      repository.ClassroomRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewClassroomService builds a new classroom service.
func NewClassroomService(repo repository.ClassroomRepository, validate *validator.Validate, logger zerolog.Logger) ClassroomService {
	return &classroomService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "classroom_service").Logger(),
	}
}

func (s *classroomService) List(ctx context.Context, userID string) ([]dto.ClassroomResponse, error) {
	classrooms, err := s.repo.ListByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.NewClassroomResponseSlice(classrooms), nil
}

func (s *classroomService) Get(ctx context.Context, id uint, userID string) (dto.ClassroomResponse, error) {
	classroom, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassroomResponse{}, ErrClassroomNotFound
		}
		return dto.ClassroomResponse{}, err
	}
	if !classroom.HasTeacher(userID) && !classroom.HasStudent(userID) {
		return dto.ClassroomResponse{}, ErrNotClassMember
	}
	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) Create(ctx context.Context, userID string, payload dto.ClassroomCreateRequest) (dto.ClassroomResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassroomResponse{}, err
	}

	code, err := generateJoinCode()
	if err != nil {
		return dto.ClassroomResponse{}, err
	}

	classroom := models.Classroom{
		Title:       payload.Title,
		Description: payload.Description,
		JoinCode:    code,
		Color:       payload.Color,
		Teachers:    []string{userID},
		Students:    []string{},
	}
	if classroom.Color == "" {
		classroom.Color = "bg-stone-100"
	}

	if err := s.repo.Create(ctx, &classroom); err != nil {
		return dto.ClassroomResponse{}, err
	}

	s.logger.Info().Uint("classroom_id", classroom.ID).Msg("classroom created")
	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) Join(ctx context.Context, userID string, payload dto.ClassroomJoinRequest) (dto.ClassroomResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassroomResponse{}, err
	}

	classroom, err := s.repo.GetByJoinCode(ctx, strings.TrimSpace(strings.ToUpper(payload.JoinCode)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassroomResponse{}, ErrInvalidJoinCode
		}
		return dto.ClassroomResponse{}, err
	}

	if classroom.HasTeacher(userID) || classroom.HasStudent(userID) {
		return dto.ClassroomResponse{}, ErrAlreadyMember
	}

	classroom.Students = append(classroom.Students, userID)
	if err := s.repo.Update(ctx, &classroom); err != nil {
		return dto.ClassroomResponse{}, err
	}

	s.logger.Info().Uint("classroom_id", classroom.ID).Msg("student joined classroom")
	return dto.NewClassroomResponse(classroom), nil
}

func (s *classroomService) Delete(ctx context.Context, id uint, userID string) error {
	classroom, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassroomNotFound
		}
		return err
	}
	if !classroom.HasTeacher(userID) {
		return ErrNotClassTeacher
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("classroom_id", id).Msg("classroom deleted")
	return nil
}

const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateJoinCode produces an 8-character code without ambiguous glyphs.
func generateJoinCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate join code: %w", err)
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf), nil
}
