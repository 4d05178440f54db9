package service

import (
	"context"
	"errors"

	"github.com/tallyrus/pergi-api/internal/models"
)

// ErrIndexOutOfRange indicates an editor operation addressed a missing
// category or criterion.
var ErrIndexOutOfRange = errors.New("rubric index out of range")

// CriterionField names an editable criterion attribute.
type CriterionField string

const (
	FieldPoint       CriterionField = "point"
	FieldDescription CriterionField = "description"
)

// rubricSaver persists a full rubric replacement for an assignment.
type rubricSaver interface {
	Save(ctx context.Context, assignmentID uint, userID string, rubric models.Rubric) (models.Rubric, error)
}

// RubricEditor accumulates edits on a working copy of an assignment rubric.
// Most operations stay local until Save; category deletion writes through
// immediately so a removed category can never reappear from a stale session.
type RubricEditor struct {
	assignmentID uint
	userID       string
	saver        rubricSaver
	working      models.Rubric
}

// NewRubricEditor starts an editing session over the given rubric snapshot.
func NewRubricEditor(assignmentID uint, userID string, rubric models.Rubric, saver rubricSaver) *RubricEditor {
	return &RubricEditor{
		assignmentID: assignmentID,
		userID:       userID,
		saver:        saver,
		working:      cloneRubric(rubric),
	}
}

// Rubric returns the current working copy.
func (e *RubricEditor) Rubric() models.Rubric {
	return e.working
}

// AddCategory appends a named category to the working copy, seeded with a
// single blank criterion so a category never exists without one.
func (e *RubricEditor) AddCategory(name string) {
	e.working = append(e.working, models.Category{
		Name:     name,
		Criteria: []models.Criterion{{Point: 0, Description: ""}},
	})
}

// AddCriterion appends a criterion to the addressed category.
func (e *RubricEditor) AddCriterion(categoryIndex int, criterion models.Criterion) error {
	if categoryIndex < 0 || categoryIndex >= len(e.working) {
		return ErrIndexOutOfRange
	}
	e.working[categoryIndex].Criteria = append(e.working[categoryIndex].Criteria, criterion)
	return nil
}

// EditField updates a single criterion attribute in the working copy.
func (e *RubricEditor) EditField(categoryIndex, criterionIndex int, field CriterionField, point float64, description string) error {
	if categoryIndex < 0 || categoryIndex >= len(e.working) {
		return ErrIndexOutOfRange
	}
	criteria := e.working[categoryIndex].Criteria
	if criterionIndex < 0 || criterionIndex >= len(criteria) {
		return ErrIndexOutOfRange
	}
	switch field {
	case FieldPoint:
		criteria[criterionIndex].Point = point
	case FieldDescription:
		criteria[criterionIndex].Description = description
	}
	return nil
}

// DeleteCategory removes a category and persists the change immediately.
func (e *RubricEditor) DeleteCategory(ctx context.Context, categoryIndex int) error {
	if categoryIndex < 0 || categoryIndex >= len(e.working) {
		return ErrIndexOutOfRange
	}

	e.working = append(e.working[:categoryIndex], e.working[categoryIndex+1:]...)

	if _, err := e.saver.Save(ctx, e.assignmentID, e.userID, e.working); err != nil {
		return err
	}
	return nil
}

// Save persists every accumulated local edit.
func (e *RubricEditor) Save(ctx context.Context) (models.Rubric, error) {
	saved, err := e.saver.Save(ctx, e.assignmentID, e.userID, e.working)
	if err != nil {
		return nil, err
	}
	e.working = cloneRubric(saved)
	return e.working, nil
}

// Reset abandons the editing session, leaving an empty working copy. It
// never touches persisted state; the caller re-fetches to edit again.
func (e *RubricEditor) Reset() {
	e.working = models.Rubric{}
}

func cloneRubric(rubric models.Rubric) models.Rubric {
	out := make(models.Rubric, len(rubric))
	for i, category := range rubric {
		criteria := make([]models.Criterion, len(category.Criteria))
		copy(criteria, category.Criteria)
		out[i] = models.Category{Name: category.Name, Criteria: criteria}
	}
	return out
}
