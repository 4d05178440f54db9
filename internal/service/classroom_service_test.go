package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tallyrus/pergi-api/internal/dto"
	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/repository"
)

func setupClassroomService(t *testing.T) (ClassroomService, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Classroom{}))

	return NewClassroomService(repository.NewClassroomRepository(db), newTestValidator(), zerolog.Nop()), db
}

func TestClassroomCreateMakesCreatorTeacher(t *testing.T) {
	svc, _ := setupClassroomService(t)

	classroom, err := svc.Create(context.Background(), "teacher-1", dto.ClassroomCreateRequest{Title: "Period 4"})
	require.NoError(t, err)
	require.Equal(t, []string{"teacher-1"}, classroom.Teachers)
	require.Empty(t, classroom.Students)
	require.Len(t, classroom.JoinCode, 8)
	require.Equal(t, "bg-stone-100", classroom.Color)
}

func TestClassroomJoinByCode(t *testing.T) {
	svc, _ := setupClassroomService(t)

	created, err := svc.Create(context.Background(), "teacher-1", dto.ClassroomCreateRequest{Title: "Period 4"})
	require.NoError(t, err)

	joined, err := svc.Join(context.Background(), "student-1", dto.ClassroomJoinRequest{JoinCode: created.JoinCode})
	require.NoError(t, err)
	require.Contains(t, joined.Students, "student-1")

	_, err = svc.Join(context.Background(), "student-1", dto.ClassroomJoinRequest{JoinCode: created.JoinCode})
	require.ErrorIs(t, err, ErrAlreadyMember)

	_, err = svc.Join(context.Background(), "student-2", dto.ClassroomJoinRequest{JoinCode: "NOPE1234"})
	require.ErrorIs(t, err, ErrInvalidJoinCode)
}

func TestClassroomListByMembership(t *testing.T) {
	svc, _ := setupClassroomService(t)

	created, err := svc.Create(context.Background(), "teacher-1", dto.ClassroomCreateRequest{Title: "Period 4"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "teacher-2", dto.ClassroomCreateRequest{Title: "Period 5"})
	require.NoError(t, err)

	_, err = svc.Join(context.Background(), "student-1", dto.ClassroomJoinRequest{JoinCode: created.JoinCode})
	require.NoError(t, err)

	asTeacher, err := svc.List(context.Background(), "teacher-1")
	require.NoError(t, err)
	require.Len(t, asTeacher, 1)

	asStudent, err := svc.List(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, asStudent, 1)
	require.Equal(t, created.ID, asStudent[0].ID)

	outsider, err := svc.List(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, outsider)
}

func TestClassroomDeleteRequiresTeacher(t *testing.T) {
	svc, _ := setupClassroomService(t)

	created, err := svc.Create(context.Background(), "teacher-1", dto.ClassroomCreateRequest{Title: "Period 4"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), created.ID, "student-1"), ErrNotClassTeacher)
	require.NoError(t, svc.Delete(context.Background(), created.ID, "teacher-1"))
	require.ErrorIs(t, svc.Delete(context.Background(), created.ID, "teacher-1"), ErrClassroomNotFound)
}
