package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/repository"
)

var pdfSample = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF")

type stubRubricParser struct {
	mu      sync.Mutex
	calls   int
	payload []byte
	block   chan struct{}
}

func (p *stubRubricParser) ParseRubric(ctx context.Context, _ string) ([]byte, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.payload, nil
}

func setupRubricService(t *testing.T, parser *stubRubricParser) (RubricService, *gorm.DB, models.Assignment) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Classroom{}, &models.Assignment{}))

	classroom := models.Classroom{Title: "Period 2", JoinCode: "RUBRTST1", Teachers: []string{"teacher-1"}}
	require.NoError(t, db.Create(&classroom).Error)

	assignment := models.Assignment{Name: "Essay", ClassID: classroom.ID}
	require.NoError(t, db.Create(&assignment).Error)

	svc := NewRubricService(repository.NewAssignmentRepository(db), repository.NewClassroomRepository(db), &stubUploader{}, parser, zerolog.Nop())
	return svc, db, assignment
}

func TestParseUploadPersistsExtractedRubric(t *testing.T) {
	parser := &stubRubricParser{payload: []byte(`[{"name":"Thesis","values":[{"point":10,"description":"Clear"}]}]`)}
	svc, db, assignment := setupRubricService(t, parser)

	rubric, err := svc.ParseUpload(context.Background(), assignment.ID, "teacher-1", "rubric.pdf", pdfSample)
	require.NoError(t, err)
	require.Len(t, rubric, 1)
	require.Equal(t, "Thesis", rubric[0].Name)

	var stored models.Assignment
	require.NoError(t, db.First(&stored, assignment.ID).Error)
	require.Len(t, stored.Rubric, 1)
	require.Equal(t, 10.0, stored.Rubric[0].Criteria[0].Point)
}

func TestParseUploadRejectsNonPDF(t *testing.T) {
	parser := &stubRubricParser{payload: []byte(`[]`)}
	svc, _, assignment := setupRubricService(t, parser)

	_, err := svc.ParseUpload(context.Background(), assignment.ID, "teacher-1", "rubric.txt", []byte("just text"))
	require.ErrorIs(t, err, ErrNotPDF)
	require.Zero(t, parser.calls)
}

func TestParseUploadRejectsMalformedExtraction(t *testing.T) {
	parser := &stubRubricParser{payload: []byte(`{"oops":true}`)}
	svc, db, assignment := setupRubricService(t, parser)

	_, err := svc.ParseUpload(context.Background(), assignment.ID, "teacher-1", "rubric.pdf", pdfSample)
	require.ErrorIs(t, err, ErrMalformedRubric)

	var stored models.Assignment
	require.NoError(t, db.First(&stored, assignment.ID).Error)
	require.Empty(t, stored.Rubric)
}

func TestParseUploadInFlightGuard(t *testing.T) {
	parser := &stubRubricParser{
		payload: []byte(`[{"name":"Thesis","values":[{"point":10,"description":"Clear"}]}]`),
		block:   make(chan struct{}),
	}
	svc, _, assignment := setupRubricService(t, parser)

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.ParseUpload(context.Background(), assignment.ID, "teacher-1", "rubric.pdf", pdfSample)
		firstDone <- err
	}()

	require.Eventually(t, func() bool {
		parser.mu.Lock()
		defer parser.mu.Unlock()
		return parser.calls == 1
	}, time.Second, 5*time.Millisecond)

	_, err := svc.ParseUpload(context.Background(), assignment.ID, "teacher-1", "rubric.pdf", pdfSample)
	require.ErrorIs(t, err, ErrRubricUploadInFlight)

	close(parser.block)
	require.NoError(t, <-firstDone)
}

func TestSaveReplacesRubricWholesale(t *testing.T) {
	parser := &stubRubricParser{payload: []byte(`[]`)}
	svc, db, assignment := setupRubricService(t, parser)

	first := models.Rubric{
		{Name: "Thesis", Criteria: []models.Criterion{{Point: 10, Description: "Clear"}}},
		{Name: "Evidence", Criteria: []models.Criterion{{Point: 8, Description: "Cited"}}},
	}
	_, err := svc.Save(context.Background(), assignment.ID, "teacher-1", first)
	require.NoError(t, err)

	second := models.Rubric{{Name: "Style", Criteria: []models.Criterion{{Point: 4, Description: "Varied"}}}}
	_, err = svc.Save(context.Background(), assignment.ID, "teacher-1", second)
	require.NoError(t, err)

	var stored models.Assignment
	require.NoError(t, db.First(&stored, assignment.ID).Error)
	require.Len(t, stored.Rubric, 1)
	require.Equal(t, "Style", stored.Rubric[0].Name)
}

func TestSaveRequiresTeacher(t *testing.T) {
	parser := &stubRubricParser{payload: []byte(`[]`)}
	svc, _, assignment := setupRubricService(t, parser)

	_, err := svc.Save(context.Background(), assignment.ID, "someone-else", models.Rubric{})
	require.ErrorIs(t, err, ErrNotClassTeacher)
}
