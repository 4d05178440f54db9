package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Classroom groups teachers, students and assignments under a join code.
type Classroom struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	JoinCode    string    `gorm:"size:16;uniqueIndex;not null" json:"joincode"`
	Color       string    `gorm:"size:64;default:bg-stone-100" json:"color"`
	TeachersRaw string    `gorm:"column:teachers;type:text" json:"-"`
	StudentsRaw string    `gorm:"column:students;type:text" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Teachers    []string  `gorm:"-" json:"teachers"`
	Students    []string  `gorm:"-" json:"students"`
}

// BeforeSave normalises member lists before persisting.
func (c *Classroom) BeforeSave(tx *gorm.DB) error {
	c.TeachersRaw = encodeMembers(c.Teachers)
	c.StudentsRaw = encodeMembers(c.Students)
	return nil
}

// AfterFind hydrates member lists after retrieval.
func (c *Classroom) AfterFind(tx *gorm.DB) error {
	c.Teachers = decodeMembers(c.TeachersRaw)
	c.Students = decodeMembers(c.StudentsRaw)
	return nil
}

// HasTeacher reports whether the user id is listed as a teacher.
func (c Classroom) HasTeacher(userID string) bool {
	return containsMember(c.Teachers, userID)
}

// HasStudent reports whether the user id is listed as a student.
func (c Classroom) HasStudent(userID string) bool {
	return containsMember(c.Students, userID)
}

func containsMember(members []string, userID string) bool {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false
	}
	for _, member := range members {
		if member == userID {
			return true
		}
	}
	return false
}

func encodeMembers(members []string) string {
	if len(members) == 0 {
		return ""
	}
	cleaned := make([]string, 0, len(members))
	for _, member := range members {
		trimmed := strings.TrimSpace(member)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	if len(cleaned) == 0 {
		return ""
	}
	return "|" + strings.Join(cleaned, "|") + "|"
}

func decodeMembers(raw string) []string {
	raw = strings.Trim(raw, "|")
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, "|")
	members := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		members = append(members, trimmed)
	}
	return members
}
