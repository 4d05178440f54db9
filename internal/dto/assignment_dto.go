package dto

import (
	"time"

	"github.com/tallyrus/pergi-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating an assignment.
type AssignmentCreateRequest struct {
	Name        string `json:"name" validate:"required,min=1"`
	Description string `json:"description"`
	ClassID     uint   `json:"class_id" validate:"required"`
	DueDate     string `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// AssignmentUpdateRequest describes a partial assignment update. A non-nil
// Rubric replaces the stored rubric wholesale; there is no partial patch of
// individual categories.
type AssignmentUpdateRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	DueDate     *string        `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Rubric      *models.Rubric `json:"rubric"`
}

// SubmissionResponse is the serialized form of one submission record.
type SubmissionResponse struct {
	ID            string                 `json:"id"`
	StudentName   string                 `json:"studentName"`
	StudentEmail  string                 `json:"studentEmail"`
	PDFURL        string                 `json:"pdfURL"`
	DateSubmitted time.Time              `json:"dateSubmitted"`
	Status        string                 `json:"status"`
	IsHandwriting bool                   `json:"isHandwriting"`
	Feedback      []models.FeedbackEntry `json:"feedback,omitempty"`
}

// AssignmentResponse is the serialized assignment including its rubric (in
// wire shape, via the models.Category marshaller) and submission list.
type AssignmentResponse struct {
	ID          uint                 `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	ClassID     uint                 `json:"class_id"`
	DueDate     *time.Time           `json:"due_date"`
	Rubric      models.Rubric        `json:"rubric"`
	Submissions []SubmissionResponse `json:"submissions"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewSubmissionResponse converts a submission record into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:            model.ID,
		StudentName:   model.StudentName,
		StudentEmail:  model.StudentEmail,
		PDFURL:        model.PDFURL,
		DateSubmitted: model.DateSubmitted,
		Status:        model.Status,
		IsHandwriting: model.IsHandwriting,
		Feedback:      model.Feedback,
	}
}

// NewSubmissionResponseSlice converts submission records into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	rubric := model.Rubric
	if rubric == nil {
		rubric = models.Rubric{}
	}
	return AssignmentResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		ClassID:     model.ClassID,
		DueDate:     model.DueDate,
		Rubric:      rubric,
		Submissions: NewSubmissionResponseSlice(model.Submissions),
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}
	return responses
}

// TeacherUploadResponse is returned after a teacher batch upload.
type TeacherUploadResponse struct {
	Message     string               `json:"message"`
	Submissions []SubmissionResponse `json:"submissions"`
}

// RubricUploadResponse carries the rubric parsed from an uploaded document.
type RubricUploadResponse struct {
	Rubric models.Rubric `json:"rubric"`
}

// GradeAllResponse summarises a batch grading run.
type GradeAllResponse struct {
	Message string `json:"message"`
	Graded  int    `json:"graded"`
	Failed  int    `json:"failed"`
}
