package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tallyrus/pergi-api/internal/dto"
	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/observability"
	"github.com/tallyrus/pergi-api/internal/repository"
)

// teacherUploadEmail marks submissions created by a teacher batch upload
// rather than a student turning in their own work.
const teacherUploadEmail = "teacher_upload@example.com"

// ErrUnsupportedFileType indicates a submission is neither a document nor an
// image the grader can read.
var ErrUnsupportedFileType = errors.New("unsupported submission file type")

// SubmissionFile is one file in a teacher batch upload.
type SubmissionFile struct {
	Filename string
	Data     []byte
}

// fileUploader stores a submission document and returns its public URL.
type fileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// gradingStarter kicks off grading for an assignment once its batch landed.
type gradingStarter interface {
	Start(ctx context.Context, assignmentID uint, userID string)
}

// SubmissionService handles teacher batch uploads of student work.
type SubmissionService interface {
	UploadBatch(ctx context.Context, assignmentID uint, userID string, files []SubmissionFile, isHandwriting bool) (dto.TeacherUploadResponse, error)
}

type submissionService struct {
	assignments repository.AssignmentRepository
	classrooms  repository.ClassroomRepository
	uploader    fileUploader
	grading     gradingStarter
	now         func() time.Time
	logger      zerolog.Logger
}

// NewSubmissionService builds a new submission service.
func NewSubmissionService(assignments repository.AssignmentRepository, classrooms repository.ClassroomRepository, uploader fileUploader, grading gradingStarter, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		assignments: assignments,
		classrooms:  classrooms,
		uploader:    uploader,
		grading:     grading,
		now:         time.Now,
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

// UploadBatch stores every file, appends the whole batch to the assignment
// in a single write, and starts grading only when every upload succeeded.
func (s *submissionService) UploadBatch(ctx context.Context, assignmentID uint, userID string, files []SubmissionFile, isHandwriting bool) (dto.TeacherUploadResponse, error) {
	assignment, err := loadAssignmentAsTeacher(ctx, s.assignments, s.classrooms, assignmentID, userID)
	if err != nil {
		return dto.TeacherUploadResponse{}, err
	}

	for _, file := range files {
		if !supportedSubmissionType(file.Data) {
			return dto.TeacherUploadResponse{}, fmt.Errorf("%w: %s", ErrUnsupportedFileType, file.Filename)
		}
	}

	submissions := make([]models.Submission, len(files))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			url, err := s.uploader.Upload(gctx, file.Filename, bytes.NewReader(file.Data))
			if err != nil {
				return err
			}
			submission := models.Submission{
				ID:            uuid.NewString(),
				StudentName:   studentNameFromFilename(file.Filename),
				StudentEmail:  teacherUploadEmail,
				PDFURL:        url,
				DateSubmitted: s.now(),
				Status:        models.SubmissionStatusGrading,
				IsHandwriting: isHandwriting,
			}
			mu.Lock()
			submissions[i] = submission
			mu.Unlock()
			return nil
		})
	}

	// All-or-nothing. One failed upload aborts the batch before anything
	// is appended to the assignment.
	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Uint("assignment_id", assignmentID).Msg("batch upload failed")
		return dto.TeacherUploadResponse{}, err
	}

	assignment.Submissions = append(assignment.Submissions, submissions...)
	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.TeacherUploadResponse{}, err
	}

	observability.SubmissionsUploaded().
		WithLabelValues(strconv.FormatBool(isHandwriting)).
		Add(float64(len(submissions)))

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Int("count", len(submissions)).
		Bool("handwriting", isHandwriting).
		Msg("submission batch uploaded")

	s.grading.Start(ctx, assignmentID, userID)

	responses := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, dto.NewSubmissionResponse(submission))
	}

	return dto.TeacherUploadResponse{
		Message:     "Files uploaded and grading started",
		Submissions: responses,
	}, nil
}

// supportedSubmissionType accepts PDFs, images (handwriting scans) and plain
// text documents.
func supportedSubmissionType(data []byte) bool {
	detected := mimetype.Detect(data)
	return detected.Is("application/pdf") ||
		strings.HasPrefix(detected.String(), "image/") ||
		strings.HasPrefix(detected.String(), "text/")
}

// studentNameFromFilename takes everything before the first dot, so
// "jane doe.final.pdf" becomes "jane doe".
func studentNameFromFilename(filename string) string {
	if i := strings.Index(filename, "."); i >= 0 {
		return filename[:i]
	}
	return filename
}
