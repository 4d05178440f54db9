package dto

import (
	"time"

	"github.com/tallyrus/pergi-api/internal/models"
)

// ClassroomCreateRequest describes the payload for creating a classroom.
type ClassroomCreateRequest struct {
	Title       string `json:"title" validate:"required,min=1"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// ClassroomJoinRequest carries the join code a student submits.
type ClassroomJoinRequest struct {
	JoinCode string `json:"joincode" validate:"required"`
}

// ClassroomResponse is the serialized classroom returned to members.
type ClassroomResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	JoinCode    string    `json:"joincode"`
	Color       string    `json:"color"`
	Teachers    []string  `json:"teachers"`
	Students    []string  `json:"students"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewClassroomResponse converts a model into a DTO.
func NewClassroomResponse(model models.Classroom) ClassroomResponse {
	teachers := model.Teachers
	if teachers == nil {
		teachers = []string{}
	}
	students := model.Students
	if students == nil {
		students = []string{}
	}
	return ClassroomResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		JoinCode:    model.JoinCode,
		Color:       model.Color,
		Teachers:    teachers,
		Students:    students,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewClassroomResponseSlice converts a slice of models into DTOs.
func NewClassroomResponseSlice(classrooms []models.Classroom) []ClassroomResponse {
	responses := make([]ClassroomResponse, 0, len(classrooms))
	for _, classroom := range classrooms {
		responses = append(responses, NewClassroomResponse(classroom))
	}
	return responses
}
