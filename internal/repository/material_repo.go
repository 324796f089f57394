package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/models"
)

// MaterialRepository defines persistence operations for course materials.
type MaterialRepository interface {
	ListByCourse(ctx context.Context, courseID uint) ([]models.CourseMaterial, error)
	GetByID(ctx context.Context, id uint) (models.CourseMaterial, error)
	Create(ctx context.Context, material *models.CourseMaterial) error
	Delete(ctx context.Context, id uint) error
}

type materialRepository struct {
	db *gorm.DB
}

// NewMaterialRepository instantiates a GORM-backed repository.
func NewMaterialRepository(db *gorm.DB) MaterialRepository {
	return &materialRepository{db: db}
}

func (r *materialRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.CourseMaterial, error) {
	var materials []models.CourseMaterial
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&materials).Error
	if err != nil {
		return nil, err
	}

	return materials, nil
}

func (r *materialRepository) GetByID(ctx context.Context, id uint) (models.CourseMaterial, error) {
	var material models.CourseMaterial
	if err := r.db.WithContext(ctx).First(&material, id).Error; err != nil {
		return models.CourseMaterial{}, err
	}

	return material, nil
}

func (r *materialRepository) Create(ctx context.Context, material *models.CourseMaterial) error {
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *materialRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.CourseMaterial{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
