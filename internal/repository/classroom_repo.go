package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tallyrus/pergi-api/internal/models"
)

// ClassroomRepository defines persistence operations for classrooms.
type ClassroomRepository interface {
	ListByMember(ctx context.Context, userID string) ([]models.Classroom, error)
	GetByID(ctx context.Context, id uint) (models.Classroom, error)
	GetByJoinCode(ctx context.Context, code string) (models.Classroom, error)
	Create(ctx context.Context, classroom *models.Classroom) error
	Update(ctx context.Context, classroom *models.Classroom) error
	Delete(ctx context.Context, id uint) error
}

type classroomRepository struct {
	db *gorm.DB
}

// NewClassroomRepository instantiates a GORM-backed repository.
func NewClassroomRepository(db *gorm.DB) ClassroomRepository {
	return &classroomRepository{db: db}
}

func (r *classroomRepository) ListByMember(ctx context.Context, userID string) ([]models.Classroom, error) {
	// Member lists are pipe-delimited columns, so containment is a LIKE on
	// the delimited id.
	pattern := "%|" + userID + "|%"
	var classrooms []models.Classroom
	if err := r.db.WithContext(ctx).
		Where("teachers LIKE ? OR students LIKE ?", pattern, pattern).
		Order("updated_at DESC").
		Find(&classrooms).Error; err != nil {
		return nil, err
	}
	return classrooms, nil
}

func (r *classroomRepository) GetByID(ctx context.Context, id uint) (models.Classroom, error) {
	var classroom models.Classroom
	if err := r.db.WithContext(ctx).First(&classroom, id).Error; err != nil {
		return models.Classroom{}, err
	}
	return classroom, nil
}

func (r *classroomRepository) GetByJoinCode(ctx context.Context, code string) (models.Classroom, error) {
	var classroom models.Classroom
	if err := r.db.WithContext(ctx).Where("join_code = ?", code).First(&classroom).Error; err != nil {
		return models.Classroom{}, err
	}
	return classroom, nil
}

func (r *classroomRepository) Create(ctx context.Context, classroom *models.Classroom) error {
	return r.db.WithContext(ctx).Create(classroom).Error
}

func (r *classroomRepository) Update(ctx context.Context, classroom *models.Classroom) error {
	return r.db.WithContext(ctx).Save(classroom).Error
}

func (r *classroomRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Classroom{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
