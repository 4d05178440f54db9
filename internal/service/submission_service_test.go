package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/repository"
)

type stubUploader struct {
	mu       sync.Mutex
	uploaded []string
	failOn   string
}

func (u *stubUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	if name == u.failOn {
		return "", errors.New("storage unavailable")
	}
	u.mu.Lock()
	u.uploaded = append(u.uploaded, name)
	u.mu.Unlock()
	return "https://files.example.com/" + name, nil
}

type stubGradingStarter struct {
	mu     sync.Mutex
	starts int
}

func (g *stubGradingStarter) Start(context.Context, uint, string) {
	g.mu.Lock()
	g.starts++
	g.mu.Unlock()
}

func setupSubmissionDB(t *testing.T) (*gorm.DB, models.Assignment) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Classroom{}, &models.Assignment{}))

	classroom := models.Classroom{
		Title:    "Period 3 English",
		JoinCode: "SUBTEST1",
		Teachers: []string{"teacher-1"},
		Students: []string{"student-1"},
	}
	require.NoError(t, db.Create(&classroom).Error)

	assignment := models.Assignment{
		Name:    "Persuasive essay",
		ClassID: classroom.ID,
		Rubric:  models.Rubric{{Name: "Thesis", Criteria: []models.Criterion{{Point: 10, Description: "Clear"}}}},
	}
	require.NoError(t, db.Create(&assignment).Error)

	return db, assignment
}

func TestUploadBatchAppendsAllAndStartsGradingOnce(t *testing.T) {
	db, assignment := setupSubmissionDB(t)

	uploader := &stubUploader{}
	starter := &stubGradingStarter{}
	svc := NewSubmissionService(repository.NewAssignmentRepository(db), repository.NewClassroomRepository(db), uploader, starter, zerolog.Nop())

	files := []SubmissionFile{
		{Filename: "jane doe.final.pdf", Data: []byte("one")},
		{Filename: "bob.pdf", Data: []byte("two")},
		{Filename: "amy", Data: []byte("three")},
	}

	result, err := svc.UploadBatch(context.Background(), assignment.ID, "teacher-1", files, true)
	require.NoError(t, err)
	require.Len(t, result.Submissions, 3)
	require.Equal(t, "jane doe", result.Submissions[0].StudentName)
	require.Equal(t, "bob", result.Submissions[1].StudentName)
	require.Equal(t, "amy", result.Submissions[2].StudentName)

	for _, submission := range result.Submissions {
		require.Equal(t, teacherUploadEmail, submission.StudentEmail)
		require.Equal(t, models.SubmissionStatusGrading, submission.Status)
		require.True(t, submission.IsHandwriting)
		require.NotEmpty(t, submission.PDFURL)
		require.NotEmpty(t, submission.ID)
	}

	var stored models.Assignment
	require.NoError(t, db.First(&stored, assignment.ID).Error)
	require.Len(t, stored.Submissions, 3)

	require.Equal(t, 1, starter.starts)
}

func TestUploadBatchAbortsWhenAnyUploadFails(t *testing.T) {
	db, assignment := setupSubmissionDB(t)

	uploader := &stubUploader{failOn: "bob.pdf"}
	starter := &stubGradingStarter{}
	svc := NewSubmissionService(repository.NewAssignmentRepository(db), repository.NewClassroomRepository(db), uploader, starter, zerolog.Nop())

	files := []SubmissionFile{
		{Filename: "jane.pdf", Data: []byte("one")},
		{Filename: "bob.pdf", Data: []byte("two")},
		{Filename: "amy.pdf", Data: []byte("three")},
	}

	_, err := svc.UploadBatch(context.Background(), assignment.ID, "teacher-1", files, false)
	require.Error(t, err)

	var stored models.Assignment
	require.NoError(t, db.First(&stored, assignment.ID).Error)
	require.Empty(t, stored.Submissions)

	require.Zero(t, starter.starts)
}

func TestUploadBatchRejectsUnsupportedFileType(t *testing.T) {
	db, assignment := setupSubmissionDB(t)

	uploader := &stubUploader{}
	starter := &stubGradingStarter{}
	svc := NewSubmissionService(repository.NewAssignmentRepository(db), repository.NewClassroomRepository(db), uploader, starter, zerolog.Nop())

	files := []SubmissionFile{
		{Filename: "jane.pdf", Data: []byte("%PDF-1.4 essay")},
		{Filename: "archive.zip", Data: []byte("PK\x03\x04rest of a zip")},
	}

	_, err := svc.UploadBatch(context.Background(), assignment.ID, "teacher-1", files, false)
	require.ErrorIs(t, err, ErrUnsupportedFileType)
	require.Empty(t, uploader.uploaded)
	require.Zero(t, starter.starts)
}

func TestUploadBatchRequiresTeacher(t *testing.T) {
	db, assignment := setupSubmissionDB(t)

	svc := NewSubmissionService(repository.NewAssignmentRepository(db), repository.NewClassroomRepository(db), &stubUploader{}, &stubGradingStarter{}, zerolog.Nop())

	_, err := svc.UploadBatch(context.Background(), assignment.ID, "student-1", []SubmissionFile{{Filename: "a.pdf"}}, false)
	require.ErrorIs(t, err, ErrNotClassTeacher)
}

func TestUploadBatchUnknownAssignment(t *testing.T) {
	db, _ := setupSubmissionDB(t)

	svc := NewSubmissionService(repository.NewAssignmentRepository(db), repository.NewClassroomRepository(db), &stubUploader{}, &stubGradingStarter{}, zerolog.Nop())

	_, err := svc.UploadBatch(context.Background(), 9999, "teacher-1", []SubmissionFile{{Filename: "a.pdf"}}, false)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}
