package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/repository"
	"github.com/tallyrus/pergi-api/pkg/ai"
)

// ErrRubricUploadInFlight indicates a rubric extraction is already running
// for the assignment.
var ErrRubricUploadInFlight = errors.New("a rubric upload is already being processed for this assignment")

// ErrNotPDF indicates the uploaded rubric file is not a PDF document.
var ErrNotPDF = errors.New("rubric upload must be a PDF file")

// ErrMalformedRubric indicates the extracted rubric did not match the
// expected shape.
var ErrMalformedRubric = errors.New("extracted rubric is malformed")

// RubricService manages assignment rubrics, including PDF extraction.
type RubricService interface {
	Get(ctx context.Context, assignmentID uint, userID string) (models.Rubric, error)
	Save(ctx context.Context, assignmentID uint, userID string, rubric models.Rubric) (models.Rubric, error)
	ParseUpload(ctx context.Context, assignmentID uint, userID string, filename string, data []byte) (models.Rubric, error)
}

type rubricService struct {
	assignments repository.AssignmentRepository
	classrooms  repository.ClassroomRepository
	uploader    fileUploader
	parser      ai.RubricParser
	logger      zerolog.Logger

	mu       sync.Mutex
	inFlight map[uint]struct{}
}

// NewRubricService builds a new rubric service.
func NewRubricService(assignments repository.AssignmentRepository, classrooms repository.ClassroomRepository, uploader fileUploader, parser ai.RubricParser, logger zerolog.Logger) RubricService {
	return &rubricService{
		assignments: assignments,
		classrooms:  classrooms,
		uploader:    uploader,
		parser:      parser,
		logger:      logger.With().Str("component", "rubric_service").Logger(),
		inFlight:    make(map[uint]struct{}),
	}
}

func (s *rubricService) Get(ctx context.Context, assignmentID uint, userID string) (models.Rubric, error) {
	assignment, err := loadAssignmentAsTeacher(ctx, s.assignments, s.classrooms, assignmentID, userID)
	if err != nil {
		return nil, err
	}
	return assignment.Rubric, nil
}

// Save replaces the stored rubric wholesale. Partial merges are never
// attempted; the editor accumulates changes client-side and submits the
// full document.
func (s *rubricService) Save(ctx context.Context, assignmentID uint, userID string, rubric models.Rubric) (models.Rubric, error) {
	assignment, err := loadAssignmentAsTeacher(ctx, s.assignments, s.classrooms, assignmentID, userID)
	if err != nil {
		return nil, err
	}

	assignment.Rubric = rubric
	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return nil, err
	}

	s.logger.Info().Uint("assignment_id", assignmentID).Int("categories", len(rubric)).Msg("rubric saved")
	return assignment.Rubric, nil
}

func (s *rubricService) ParseUpload(ctx context.Context, assignmentID uint, userID string, filename string, data []byte) (models.Rubric, error) {
	if !s.acquire(assignmentID) {
		return nil, ErrRubricUploadInFlight
	}
	defer s.release(assignmentID)

	assignment, err := loadAssignmentAsTeacher(ctx, s.assignments, s.classrooms, assignmentID, userID)
	if err != nil {
		return nil, err
	}

	if !mimetype.Detect(data).Is("application/pdf") {
		return nil, ErrNotPDF
	}

	// The document is stored first and handed to the model by URL.
	url, err := s.uploader.Upload(ctx, filename, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	raw, err := s.parser.ParseRubric(ctx, url)
	if err != nil {
		return nil, err
	}

	var rubric models.Rubric
	if err := json.Unmarshal(raw, &rubric); err != nil {
		s.logger.Error().Err(err).Uint("assignment_id", assignmentID).Msg("rubric extraction returned malformed JSON")
		return nil, ErrMalformedRubric
	}

	assignment.Rubric = rubric
	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return nil, err
	}

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Str("filename", filename).
		Int("categories", len(rubric)).
		Msg("rubric extracted from upload")

	return rubric, nil
}

func (s *rubricService) acquire(assignmentID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[assignmentID]; busy {
		return false
	}
	s.inFlight[assignmentID] = struct{}{}
	return true
}

func (s *rubricService) release(assignmentID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, assignmentID)
}
