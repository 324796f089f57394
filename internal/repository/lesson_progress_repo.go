package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/luminalms/lumina-api/internal/models"
)

// LessonProgressRepository defines persistence operations for per-lesson
// completion markers.
type LessonProgressRepository interface {
	ListByUserAndCourse(ctx context.Context, userID, courseID uint) ([]models.LessonProgress, error)
	CountCompleted(ctx context.Context, userID, courseID uint) (int64, error)
	UpsertViewed(ctx context.Context, progress *models.LessonProgress) error
	UpsertCompleted(ctx context.Context, progress *models.LessonProgress) error
}

type lessonProgressRepository struct {
	db *gorm.DB
}

// NewLessonProgressRepository instantiates a GORM-backed repository.
func NewLessonProgressRepository(db *gorm.DB) LessonProgressRepository {
	return &lessonProgressRepository{db: db}
}

func (r *lessonProgressRepository) ListByUserAndCourse(ctx context.Context, userID, courseID uint) ([]models.LessonProgress, error) {
	var rows []models.LessonProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("lesson_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (r *lessonProgressRepository) CountCompleted(ctx context.Context, userID, courseID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.LessonProgress{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Count(&total).Error
	return total, err
}

// UpsertViewed inserts a viewed marker; an existing row is left untouched so a
// completed lesson is never downgraded by a later view.
func (r *lessonProgressRepository) UpsertViewed(ctx context.Context, progress *models.LessonProgress) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).
		Create(progress).Error
}

// UpsertCompleted inserts or promotes the row to completed. completed_at is
// written only on the transition to completed, never overwritten.
func (r *lessonProgressRepository) UpsertCompleted(ctx context.Context, progress *models.LessonProgress) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.LessonProgress
		err := tx.Where("user_id = ? AND lesson_id = ?", progress.UserID, progress.LessonID).First(&existing).Error
		switch {
		case err == nil:
			if existing.Completed {
				*progress = existing
				return nil
			}
			existing.Completed = true
			existing.CompletedAt = progress.CompletedAt
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			*progress = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			progress.Completed = true
			return tx.Create(progress).Error
		default:
			return err
		}
	})
}
