package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// SubmissionStatusOpen indicates no file has been submitted yet.
	SubmissionStatusOpen = "open"
	// SubmissionStatusGrading indicates the file is uploaded and awaiting grading.
	SubmissionStatusGrading = "grading"
	// SubmissionStatusGraded indicates grading feedback has been produced.
	SubmissionStatusGraded = "graded"
	// SubmissionStatusError indicates the grading attempt failed for this file.
	SubmissionStatusError = "error"
)

// FeedbackEntry is one per-criterion grading result parsed from the AI reply.
type FeedbackEntry struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Total    float64 `json:"total"`
	Comments string  `json:"comments"`
}

// Submission is one uploaded file tied to an assignment, with its grading state.
type Submission struct {
	ID            string          `json:"id"`
	StudentName   string          `json:"studentName"`
	StudentEmail  string          `json:"studentEmail"`
	PDFURL        string          `json:"pdfURL"`
	DateSubmitted time.Time       `json:"dateSubmitted"`
	Status        string          `json:"status"`
	IsHandwriting bool            `json:"isHandwriting"`
	Feedback      []FeedbackEntry `json:"feedback,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// IsGraded reports whether grading feedback exists for the submission.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// Assignment is a classroom task collecting student or teacher-uploaded
// submissions. The rubric and the submission list live in JSON columns: the
// submission list is always replaced as a whole, so a batch of uploads lands
// in a single persisted update.
type Assignment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"size:255;not null" json:"name"`
	Description    string         `gorm:"type:text" json:"description"`
	ClassID        uint           `gorm:"index;not null" json:"class_id"`
	DueDate        *time.Time     `json:"due_date"`
	RubricRaw      datatypes.JSON `gorm:"column:rubric;type:json" json:"-"`
	SubmissionsRaw datatypes.JSON `gorm:"column:submissions;type:json" json:"-"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	Rubric         Rubric         `gorm:"-" json:"rubric"`
	Submissions    []Submission   `gorm:"-" json:"submissions"`
}

// BeforeSave serialises the rubric and submission list into JSON columns.
func (a *Assignment) BeforeSave(tx *gorm.DB) error {
	rubric := a.Rubric
	if rubric == nil {
		rubric = Rubric{}
	}
	encodedRubric, err := json.Marshal(rubric)
	if err != nil {
		return err
	}
	a.RubricRaw = datatypes.JSON(encodedRubric)

	submissions := a.Submissions
	if submissions == nil {
		submissions = []Submission{}
	}
	encodedSubmissions, err := json.Marshal(submissions)
	if err != nil {
		return err
	}
	a.SubmissionsRaw = datatypes.JSON(encodedSubmissions)

	return nil
}

// AfterFind hydrates the rubric and submission list after retrieval.
func (a *Assignment) AfterFind(tx *gorm.DB) error {
	a.Rubric = Rubric{}
	if len(a.RubricRaw) > 0 {
		if err := json.Unmarshal(a.RubricRaw, &a.Rubric); err != nil {
			return err
		}
	}

	a.Submissions = []Submission{}
	if len(a.SubmissionsRaw) > 0 {
		if err := json.Unmarshal(a.SubmissionsRaw, &a.Submissions); err != nil {
			return err
		}
	}

	return nil
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return a.DueDate != nil && reference.After(*a.DueDate)
}
