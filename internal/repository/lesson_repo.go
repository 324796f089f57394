package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/models"
)

// LessonRepository defines persistence operations for lessons.
type LessonRepository interface {
	ListByCourse(ctx context.Context, courseID uint) ([]models.Lesson, error)
	GetByID(ctx context.Context, id uint) (models.Lesson, error)
	MaxOrder(ctx context.Context, sectionID uint) (int, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	DeleteCascade(ctx context.Context, id uint) error
	Resequence(ctx context.Context, sectionID uint) error
}

type lessonRepository struct {
	db *gorm.DB
}

// NewLessonRepository instantiates a GORM-backed repository.
func NewLessonRepository(db *gorm.DB) LessonRepository {
	return &lessonRepository{db: db}
}

func (r *lessonRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	var lessons []models.Lesson
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("section_id ASC, lesson_order ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, err
	}

	return lessons, nil
}

func (r *lessonRepository) GetByID(ctx context.Context, id uint) (models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return models.Lesson{}, err
	}

	return lesson, nil
}

func (r *lessonRepository) MaxOrder(ctx context.Context, sectionID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&models.Lesson{}).
		Where("section_id = ?", sectionID).
		Select("COALESCE(MAX(lesson_order), 0)").
		Scan(&max).Error
	return max, err
}

func (r *lessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

func (r *lessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	return r.db.WithContext(ctx).Save(lesson).Error
}

// DeleteCascade removes the lesson and its progress rows.
func (r *lessonRepository) DeleteCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", id).Delete(&models.LessonProgress{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Lesson{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Resequence rewrites lesson_order within a section to a contiguous 1..N
// sequence.
func (r *lessonRepository) Resequence(ctx context.Context, sectionID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lessons []models.Lesson
		if err := tx.Where("section_id = ?", sectionID).Order("lesson_order ASC").Find(&lessons).Error; err != nil {
			return err
		}

		for i, lesson := range lessons {
			want := i + 1
			if lesson.Order == want {
				continue
			}
			if err := tx.Model(&models.Lesson{}).Where("id = ?", lesson.ID).Update("lesson_order", want).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
