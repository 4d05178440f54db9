package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tallyrus/pergi-api/internal/dto"
	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/repository"
)

// AssignmentService manages classroom assignments.
type AssignmentService interface {
	ListByClass(ctx context.Context, classID uint, userID string) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint, userID string) (dto.AssignmentResponse, error)
	Create(ctx context.Context, userID string, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, userID string, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	classrooms  repository.ClassroomRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(assignments repository.AssignmentRepository, classrooms repository.ClassroomRepository, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		classrooms:  classrooms,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) ListByClass(ctx context.Context, classID uint, userID string) ([]dto.AssignmentResponse, error) {
	classroom, err := s.classrooms.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassroomNotFound
		}
		return nil, err
	}
	if !classroom.HasTeacher(userID) && !classroom.HasStudent(userID) {
		return nil, ErrNotClassMember
	}

	assignments, err := s.assignments.ListByClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, id uint, userID string) (dto.AssignmentResponse, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrAssignmentNotFound
		}
		return dto.AssignmentResponse{}, err
	}

	classroom, err := s.classrooms.GetByID(ctx, assignment.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrClassroomNotFound
		}
		return dto.AssignmentResponse{}, err
	}
	if !classroom.HasTeacher(userID) && !classroom.HasStudent(userID) {
		return dto.AssignmentResponse{}, ErrNotClassMember
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, userID string, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	classroom, err := s.classrooms.GetByID(ctx, payload.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrClassroomNotFound
		}
		return dto.AssignmentResponse{}, err
	}
	if !classroom.HasTeacher(userID) {
		return dto.AssignmentResponse{}, ErrNotClassTeacher
	}

	assignment := models.Assignment{
		Name:        payload.Name,
		Description: payload.Description,
		ClassID:     payload.ClassID,
		Rubric:      models.Rubric{},
		Submissions: []models.Submission{},
	}

	if payload.DueDate != "" {
		due, err := time.Parse(time.RFC3339, payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.DueDate = &due
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("class_id", assignment.ClassID).Msg("assignment created")
	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, userID string, payload dto.AssignmentUpdateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := loadAssignmentAsTeacher(ctx, s.assignments, s.classrooms, id, userID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if payload.Name != nil {
		assignment.Name = *payload.Name
	}
	if payload.Description != nil {
		assignment.Description = *payload.Description
	}
	if payload.DueDate != nil {
		if *payload.DueDate == "" {
			assignment.DueDate = nil
		} else {
			due, err := time.Parse(time.RFC3339, *payload.DueDate)
			if err != nil {
				return dto.AssignmentResponse{}, err
			}
			assignment.DueDate = &due
		}
	}
	if payload.Rubric != nil {
		// Rubric updates replace the whole document.
		assignment.Rubric = *payload.Rubric
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")
	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, id uint, userID string) error {
	if _, err := loadAssignmentAsTeacher(ctx, s.assignments, s.classrooms, id, userID); err != nil {
		return err
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}
