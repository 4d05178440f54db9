package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/repository"
)

// ErrAssignmentNotFound indicates the requested assignment does not exist.
var ErrAssignmentNotFound = errors.New("assignment not found")

// ErrClassroomNotFound indicates the requested classroom does not exist.
var ErrClassroomNotFound = errors.New("classroom not found")

// ErrNotClassTeacher indicates the caller does not teach the class.
var ErrNotClassTeacher = errors.New("user is not a teacher of this class")

// loadAssignmentAsTeacher fetches an assignment and verifies the caller
// teaches the class it belongs to.
func loadAssignmentAsTeacher(ctx context.Context, assignments repository.AssignmentRepository, classrooms repository.ClassroomRepository, assignmentID uint, userID string) (models.Assignment, error) {
	assignment, err := assignments.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}

	classroom, err := classrooms.GetByID(ctx, assignment.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrClassroomNotFound
		}
		return models.Assignment{}, err
	}

	if !classroom.HasTeacher(userID) {
		return models.Assignment{}, ErrNotClassTeacher
	}

	return assignment, nil
}
