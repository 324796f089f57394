package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/models"
)

// CourseFilter describes catalog query options.
type CourseFilter struct {
	Search          string
	Category        string
	DifficultyLevel string
	PriceMin        *float64
	PriceMax        *float64
	InstructorID    *uint
	PublishedOnly   bool
	SortBy          string
	SortOrder       string
	Page            int
	PageSize        int
}

// CourseRepository defines persistence operations for courses.
type CourseRepository interface {
	List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	DeleteCascade(ctx context.Context, id uint) error
	CountLessons(ctx context.Context, courseID uint) (int64, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository instantiates a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{}).Preload("Instructor")

	if filter.PublishedOnly {
		query = query.Where("is_published = ?", true)
	}

	if filter.InstructorID != nil {
		query = query.Where("instructor_id = ?", *filter.InstructorID)
	}

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	if filter.DifficultyLevel != "" {
		query = query.Where("difficulty_level = ?", filter.DifficultyLevel)
	}

	if filter.PriceMin != nil {
		query = query.Where("price >= ?", *filter.PriceMin)
	}

	if filter.PriceMax != nil {
		query = query.Where("price <= ?", *filter.PriceMax)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(normalizeCourseSort(filter.SortBy, filter.SortOrder))

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var courses []models.Course
	if err := query.Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Preload("Instructor").First(&course, id).Error; err != nil {
		return models.Course{}, err
	}

	return course, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

// DeleteCascade removes the course and all of its children in one
// transaction, children first so no orphan rows survive a partial failure.
func (r *courseRepository) DeleteCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteCourseTree(tx, id)
	})
}

func (r *courseRepository) CountLessons(ctx context.Context, courseID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&total).Error
	return total, err
}

// deleteCourseTree removes every row belonging to a course inside the caller's
// transaction. Order: submissions, assignments, lesson progress, lessons,
// sections, materials, enrollments, course.
func deleteCourseTree(tx *gorm.DB, courseID uint) error {
	var assignmentIDs []uint
	if err := tx.Model(&models.Assignment{}).Where("course_id = ?", courseID).Pluck("id", &assignmentIDs).Error; err != nil {
		return err
	}
	if len(assignmentIDs) > 0 {
		if err := tx.Where("assignment_id IN ?", assignmentIDs).Delete(&models.Submission{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("course_id = ?", courseID).Delete(&models.Assignment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("course_id = ?", courseID).Delete(&models.LessonProgress{}).Error; err != nil {
		return err
	}
	if err := tx.Where("course_id = ?", courseID).Delete(&models.Lesson{}).Error; err != nil {
		return err
	}
	if err := tx.Where("course_id = ?", courseID).Delete(&models.Section{}).Error; err != nil {
		return err
	}
	if err := tx.Where("course_id = ?", courseID).Delete(&models.CourseMaterial{}).Error; err != nil {
		return err
	}
	if err := tx.Where("course_id = ?", courseID).Delete(&models.Enrollment{}).Error; err != nil {
		return err
	}

	result := tx.Delete(&models.Course{}, courseID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func normalizeCourseSort(sortBy, sortOrder string) string {
	column := "created_at"
	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case "title":
		column = "title"
	case "price":
		column = "price"
	case "created_at", "":
	default:
		column = "created_at"
	}

	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(sortOrder), "asc") {
		direction = "ASC"
	}

	return column + " " + direction
}
