package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/tallyrus/pergi-api/internal/dto"
	"github.com/tallyrus/pergi-api/internal/middleware"
	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/observability"
	"github.com/tallyrus/pergi-api/internal/repository"
	"github.com/tallyrus/pergi-api/pkg/ai"
)

// ErrNoRubric indicates grading was requested before a rubric exists.
var ErrNoRubric = errors.New("assignment has no rubric")

// maxDocumentBytes caps how much of a stored submission is read back for
// text detection.
const maxDocumentBytes = 10 << 20

// GradingService grades every pending submission of an assignment.
type GradingService interface {
	GradeAll(ctx context.Context, assignmentID uint, userID string) (dto.GradeAllResponse, error)
	Start(ctx context.Context, assignmentID uint, userID string)
}

type gradingService struct {
	assignments repository.AssignmentRepository
	classrooms  repository.ClassroomRepository
	grader      ai.Grader
	notifier    Notifier
	httpClient  *http.Client
	logger      zerolog.Logger
}

// NewGradingService builds a new grading service.
func NewGradingService(assignments repository.AssignmentRepository, classrooms repository.ClassroomRepository, grader ai.Grader, notifier Notifier, logger zerolog.Logger) GradingService {
	return &gradingService{
		assignments: assignments,
		classrooms:  classrooms,
		grader:      grader,
		notifier:    notifier,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		logger:      logger.With().Str("component", "grading_service").Logger(),
	}
}

// Start runs GradeAll detached from the request that triggered it. Only
// the correlation identifier survives the handoff.
func (s *gradingService) Start(ctx context.Context, assignmentID uint, userID string) {
	correlation := middleware.CorrelationIDFromContext(ctx)
	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
		defer cancel()
		runCtx = middleware.ContextWithCorrelation(runCtx, correlation)
		if _, err := s.GradeAll(runCtx, assignmentID, userID); err != nil {
			s.logger.Error().Err(err).
				Uint("assignment_id", assignmentID).
				Str("correlation_id", correlation).
				Msg("background grading failed")
		}
	}()
}

// GradeAll grades every submission that is not already graded. Failures are
// recorded on the submission and never abort the rest of the batch.
func (s *gradingService) GradeAll(ctx context.Context, assignmentID uint, userID string) (dto.GradeAllResponse, error) {
	assignment, err := loadAssignmentAsTeacher(ctx, s.assignments, s.classrooms, assignmentID, userID)
	if err != nil {
		return dto.GradeAllResponse{}, err
	}

	if len(assignment.Rubric) == 0 {
		return dto.GradeAllResponse{}, ErrNoRubric
	}

	rubricText := rubricToString(assignment.Rubric)

	graded, failed := 0, 0
	for i := range assignment.Submissions {
		submission := &assignment.Submissions[i]
		if submission.IsGraded() {
			continue
		}

		feedback, err := s.gradeOne(ctx, rubricText, submission)
		if err != nil {
			s.logger.Error().Err(err).
				Uint("assignment_id", assignmentID).
				Str("submission_id", submission.ID).
				Msg("failed to grade submission")
			submission.Status = models.SubmissionStatusError
			submission.Error = err.Error()
			observability.GradingFailures().WithLabelValues("grade").Inc()
			failed++
			continue
		}

		submission.Feedback = feedback
		submission.Status = models.SubmissionStatusGraded
		submission.Error = ""
		observability.GradedSubmissions().WithLabelValues("openai").Inc()
		graded++
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.GradeAllResponse{}, err
	}

	s.logger.Info().
		Uint("assignment_id", assignmentID).
		Int("graded", graded).
		Int("failed", failed).
		Msg("grading pass finished")

	if s.notifier != nil && graded+failed > 0 {
		s.notifier.GradingCompleted(ctx, GradingCompletedEvent{
			AssignmentID:   assignmentID,
			AssignmentName: assignment.Name,
			ClassID:        assignment.ClassID,
			Graded:         graded,
			Failed:         failed,
			CompletedAt:    time.Now().UTC(),
		})
	}

	return dto.GradeAllResponse{
		Message: "Grading completed",
		Graded:  graded,
		Failed:  failed,
	}, nil
}

func (s *gradingService) gradeOne(ctx context.Context, rubricText string, submission *models.Submission) ([]models.FeedbackEntry, error) {
	input := ai.GradeInput{
		RubricText:  rubricText,
		DocumentURL: submission.PDFURL,
		Handwriting: submission.IsHandwriting,
	}

	// Plain-text documents are inlined; PDFs and handwriting go to the
	// model by URL.
	if !submission.IsHandwriting {
		if text, err := s.fetchText(ctx, submission.PDFURL); err == nil && text != "" {
			input.EssayText = text
		}
	}

	raw, err := s.grader.Grade(ctx, input)
	if err != nil {
		return nil, err
	}

	feedback := parseFeedback(raw)
	if len(feedback) == 0 {
		return nil, fmt.Errorf("no feedback entries parsed from model output")
	}
	return feedback, nil
}

// fetchText downloads the stored document and returns its content when it
// is plain text. Binary documents return an empty string.
func (s *gradingService) fetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch document: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return "", err
	}

	detected := mimetype.Detect(data)
	if detected.Is("text/plain") || strings.HasPrefix(detected.String(), "text/") {
		return string(data), nil
	}
	return "", nil
}

// rubricToString flattens a rubric into the text block the grader prompt
// expects, one category per paragraph.
func rubricToString(rubric models.Rubric) string {
	var b strings.Builder
	for i, category := range rubric {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("Topic and Total points: ")
		b.WriteString(category.Name)
		b.WriteString("\nScoring criteria:")
		for _, criterion := range category.Criteria {
			b.WriteString(fmt.Sprintf("\n  - %g points: %s", criterion.Point, criterion.Description))
		}
	}
	return b.String()
}

// parseFeedback extracts per-criteria feedback entries from the model's
// formatted grading output.
func parseFeedback(raw string) []models.FeedbackEntry {
	var entries []models.FeedbackEntry
	var current *models.FeedbackEntry

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == `"""` {
			continue
		}

		switch {
		case strings.HasPrefix(line, "***TOTALSCORE***"):
			// The running total is recomputed from the entries, so the
			// trailer line is only a terminator.
			if current != nil {
				entries = append(entries, *current)
				current = nil
			}
		case strings.HasPrefix(line, "**Criteria Name**"):
			if current != nil {
				entries = append(entries, *current)
			}
			current = &models.FeedbackEntry{Name: stripMarkers(afterColon(line))}
		case strings.HasPrefix(line, "**Score**"):
			if current == nil {
				continue
			}
			score, total, ok := parseScore(stripMarkers(afterColon(line)))
			if ok {
				current.Score = score
				current.Total = total
			}
		case strings.HasPrefix(line, "**Comments/suggestions**"):
			if current == nil {
				continue
			}
			current.Comments = strings.TrimSpace(afterColon(line))
		default:
			// Continuation of a multi-line comment.
			if current != nil && current.Comments != "" {
				current.Comments += "\n" + line
			}
		}
	}

	if current != nil {
		entries = append(entries, *current)
	}
	return entries
}

func afterColon(line string) string {
	if i := strings.Index(line, ":"); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return ""
}

func stripMarkers(s string) string {
	return strings.TrimSpace(strings.Trim(s, "*() "))
}

// parseScore splits "7/10" into its score and subtotal.
func parseScore(s string) (float64, float64, bool) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(strings.Trim(parts[0], "*() ")), 64)
	if err != nil {
		return 0, 0, false
	}
	total, err := strconv.ParseFloat(strings.TrimSpace(strings.Trim(parts[1], "*() ")), 64)
	if err != nil {
		return 0, 0, false
	}
	return score, total, true
}
