package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tallyrus/pergi-api/internal/models"
)

// TemplateRepository defines persistence operations for templates.
type TemplateRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Template, error)
	ListPublic(ctx context.Context) ([]models.Template, error)
	GetByID(ctx context.Context, id uint) (models.Template, error)
	Create(ctx context.Context, template *models.Template) error
	Update(ctx context.Context, template *models.Template) error
	Delete(ctx context.Context, id uint) error
}

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository instantiates a GORM-backed repository.
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) ListByUser(ctx context.Context, userID string) ([]models.Template, error) {
	var templates []models.Template
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) ListPublic(ctx context.Context) ([]models.Template, error) {
	var templates []models.Template
	if err := r.db.WithContext(ctx).
		Where("public = ?", true).
		Order("updated_at DESC").
		Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) GetByID(ctx context.Context, id uint) (models.Template, error) {
	var template models.Template
	if err := r.db.WithContext(ctx).First(&template, id).Error; err != nil {
		return models.Template{}, err
	}
	return template, nil
}

func (r *templateRepository) Create(ctx context.Context, template *models.Template) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *templateRepository) Update(ctx context.Context, template *models.Template) error {
	return r.db.WithContext(ctx).Save(template).Error
}

func (r *templateRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Template{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
