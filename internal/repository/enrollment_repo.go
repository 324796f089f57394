package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/models"
)

// EnrollmentRepository defines persistence operations for enrollments.
type EnrollmentRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.Enrollment, error)
	GetByID(ctx context.Context, id uint) (models.Enrollment, error)
	GetByUserAndCourse(ctx context.Context, userID, courseID uint) (models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id uint) error
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository instantiates a GORM-backed repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) ListByUser(ctx context.Context, userID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Course").
		Preload("Course.Instructor").
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}

	return enrollments, nil
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	if err := r.db.WithContext(ctx).Preload("Course").First(&enrollment, id).Error; err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

func (r *enrollmentRepository) GetByUserAndCourse(ctx context.Context, userID, courseID uint) (models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	if err != nil {
		return models.Enrollment{}, err
	}

	return enrollment, nil
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Save(enrollment).Error
}

func (r *enrollmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Enrollment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
