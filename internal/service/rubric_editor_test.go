package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tallyrus/pergi-api/internal/models"
)

type recordingSaver struct {
	saves  int
	latest models.Rubric
}

func (s *recordingSaver) Save(_ context.Context, _ uint, _ string, rubric models.Rubric) (models.Rubric, error) {
	s.saves++
	s.latest = rubric
	return rubric, nil
}

func editorRubric() models.Rubric {
	return models.Rubric{
		{Name: "Thesis", Criteria: []models.Criterion{{Point: 10, Description: "Clear"}}},
		{Name: "Evidence", Criteria: []models.Criterion{{Point: 8, Description: "Cited"}}},
	}
}

func TestEditorLocalOpsDoNotPersistUntilSave(t *testing.T) {
	saver := &recordingSaver{}
	editor := NewRubricEditor(7, "teacher-1", editorRubric(), saver)

	editor.AddCategory("Style")
	require.NoError(t, editor.AddCriterion(2, models.Criterion{Point: 5, Description: "Varied sentences"}))
	require.NoError(t, editor.EditField(0, 0, FieldPoint, 12, ""))
	require.NoError(t, editor.EditField(0, 0, FieldDescription, 0, "Clear and arguable"))

	require.Zero(t, saver.saves)

	saved, err := editor.Save(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, saver.saves)
	require.Len(t, saved, 3)
	require.Equal(t, 12.0, saved[0].Criteria[0].Point)
	require.Equal(t, "Clear and arguable", saved[0].Criteria[0].Description)
	require.Equal(t, "Style", saved[2].Name)
}

func TestEditorDeleteCategoryPersistsImmediately(t *testing.T) {
	saver := &recordingSaver{}
	editor := NewRubricEditor(7, "teacher-1", editorRubric(), saver)

	require.NoError(t, editor.DeleteCategory(context.Background(), 0))

	require.Equal(t, 1, saver.saves)
	require.Len(t, saver.latest, 1)
	require.Equal(t, "Evidence", saver.latest[0].Name)
}

func TestEditorAddCategorySeedsOneBlankCriterion(t *testing.T) {
	editor := NewRubricEditor(7, "teacher-1", models.Rubric{}, &recordingSaver{})

	editor.AddCategory("")

	rubric := editor.Rubric()
	require.Len(t, rubric, 1)
	require.Equal(t, []models.Criterion{{Point: 0, Description: ""}}, rubric[0].Criteria)
}

func TestEditorResetClearsWorkingCopy(t *testing.T) {
	saver := &recordingSaver{}
	editor := NewRubricEditor(7, "teacher-1", editorRubric(), saver)

	editor.AddCategory("Scrapped")
	require.NoError(t, editor.EditField(0, 0, FieldPoint, 99, ""))

	editor.Reset()

	require.Empty(t, editor.Rubric())
	require.Zero(t, saver.saves)
}

func TestEditorResetLeavesPersistedDeletionAlone(t *testing.T) {
	saver := &recordingSaver{}
	editor := NewRubricEditor(7, "teacher-1", editorRubric(), saver)

	require.NoError(t, editor.DeleteCategory(context.Background(), 1))
	editor.AddCategory("Unsaved")
	editor.Reset()

	// The deletion was written through before the session was abandoned.
	require.Empty(t, editor.Rubric())
	require.Equal(t, 1, saver.saves)
	require.Len(t, saver.latest, 1)
	require.Equal(t, "Thesis", saver.latest[0].Name)
}

func TestEditorIndexBounds(t *testing.T) {
	editor := NewRubricEditor(7, "teacher-1", editorRubric(), &recordingSaver{})

	require.ErrorIs(t, editor.AddCriterion(5, models.Criterion{}), ErrIndexOutOfRange)
	require.ErrorIs(t, editor.EditField(0, 3, FieldPoint, 1, ""), ErrIndexOutOfRange)
	require.ErrorIs(t, editor.DeleteCategory(context.Background(), -1), ErrIndexOutOfRange)
}
