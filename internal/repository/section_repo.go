package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/models"
)

// SectionRepository defines persistence operations for course sections.
type SectionRepository interface {
	ListByCourse(ctx context.Context, courseID uint) ([]models.Section, error)
	GetByID(ctx context.Context, id uint) (models.Section, error)
	MaxOrderIndex(ctx context.Context, courseID uint) (int, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	DeleteCascade(ctx context.Context, id uint) error
	Resequence(ctx context.Context, courseID uint) error
}

type sectionRepository struct {
	db *gorm.DB
}

// NewSectionRepository instantiates a GORM-backed repository.
func NewSectionRepository(db *gorm.DB) SectionRepository {
	return &sectionRepository{db: db}
}

func (r *sectionRepository) ListByCourse(ctx context.Context, courseID uint) ([]models.Section, error) {
	var sections []models.Section
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("order_index ASC").
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lesson_order ASC")
		}).
		Find(&sections).Error
	if err != nil {
		return nil, err
	}

	return sections, nil
}

func (r *sectionRepository) GetByID(ctx context.Context, id uint) (models.Section, error) {
	var section models.Section
	if err := r.db.WithContext(ctx).First(&section, id).Error; err != nil {
		return models.Section{}, err
	}

	return section, nil
}

func (r *sectionRepository) MaxOrderIndex(ctx context.Context, courseID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Model(&models.Section{}).
		Where("course_id = ?", courseID).
		Select("COALESCE(MAX(order_index), 0)").
		Scan(&max).Error
	return max, err
}

func (r *sectionRepository) Create(ctx context.Context, section *models.Section) error {
	return r.db.WithContext(ctx).Create(section).Error
}

func (r *sectionRepository) Update(ctx context.Context, section *models.Section) error {
	return r.db.WithContext(ctx).Save(section).Error
}

// DeleteCascade removes the section together with its lessons and their
// progress rows.
func (r *sectionRepository) DeleteCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lessonIDs []uint
		if err := tx.Model(&models.Lesson{}).Where("section_id = ?", id).Pluck("id", &lessonIDs).Error; err != nil {
			return err
		}
		if len(lessonIDs) > 0 {
			if err := tx.Where("lesson_id IN ?", lessonIDs).Delete(&models.LessonProgress{}).Error; err != nil {
				return err
			}
			if err := tx.Where("section_id = ?", id).Delete(&models.Lesson{}).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&models.Section{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Resequence rewrites order_index of the course's sections to a contiguous
// 1..N sequence.
func (r *sectionRepository) Resequence(ctx context.Context, courseID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sections []models.Section
		if err := tx.Where("course_id = ?", courseID).Order("order_index ASC").Find(&sections).Error; err != nil {
			return err
		}

		for i, section := range sections {
			want := i + 1
			if section.OrderIndex == want {
				continue
			}
			if err := tx.Model(&models.Section{}).Where("id = ?", section.ID).Update("order_index", want).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
