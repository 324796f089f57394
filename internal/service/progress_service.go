package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/repository"
)

// ProgressService tracks per-lesson completion and keeps the enrollment's
// aggregate percentage in sync.
type ProgressService interface {
	// RecordLessonViewed upserts a viewed marker. Best effort: failures are
	// logged, never returned, so a lesson fetch cannot fail on bookkeeping.
	RecordLessonViewed(ctx context.Context, userID uint, lesson models.Lesson)
	// MarkLessonComplete marks the lesson completed for the requesting user
	// and synchronously recomputes the enrollment percentage. Idempotent.
	MarkLessonComplete(ctx context.Context, userID, courseID, lessonID uint) (dto.ProgressRecord, error)
	// GetCourseProgress returns the detailed breakdown and self-heals a
	// drifted enrollment percentage.
	GetCourseProgress(ctx context.Context, userID, courseID uint) (dto.CourseProgressResponse, error)
}

type progressService struct {
	enrollments repository.EnrollmentRepository
	progress    repository.LessonProgressRepository
	lessons     repository.LessonRepository
	courses     repository.CourseRepository
	tracer      trace.Tracer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewProgressService builds a new progress service.
func NewProgressService(enrollments repository.EnrollmentRepository, progress repository.LessonProgressRepository, lessons repository.LessonRepository, courses repository.CourseRepository, logger zerolog.Logger) ProgressService {
	return &progressService{
		enrollments: enrollments,
		progress:    progress,
		lessons:     lessons,
		courses:     courses,
		tracer:      otel.Tracer("github.com/luminalms/lumina-api/internal/service/progress"),
		logger:      logger.With().Str("component", "progress_service").Logger(),
		now:         time.Now,
	}
}

func (s *progressService) RecordLessonViewed(ctx context.Context, userID uint, lesson models.Lesson) {
	record := models.LessonProgress{
		UserID:   userID,
		LessonID: lesson.ID,
		CourseID: lesson.CourseID,
	}

	if err := s.progress.UpsertViewed(ctx, &record); err != nil {
		s.logger.Warn().Err(err).
			Uint("user_id", userID).
			Uint("lesson_id", lesson.ID).
			Msg("failed to record lesson view")
	}
}

func (s *progressService) MarkLessonComplete(ctx context.Context, userID, courseID, lessonID uint) (dto.ProgressRecord, error) {
	ctx, span := s.tracer.Start(ctx, "progress.MarkLessonComplete", trace.WithAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("lesson.id", int64(lessonID)),
	))
	defer span.End()

	enrollment, err := s.enrollments.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProgressRecord{}, ErrNotEnrolled
		}
		return dto.ProgressRecord{}, err
	}

	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProgressRecord{}, ErrLessonNotFound
		}
		return dto.ProgressRecord{}, err
	}

	if lesson.CourseID != enrollment.CourseID {
		return dto.ProgressRecord{}, ErrInvalidLesson
	}

	completedAt := s.now()
	record := models.LessonProgress{
		UserID:      userID,
		LessonID:    lessonID,
		CourseID:    courseID,
		Completed:   true,
		CompletedAt: &completedAt,
	}

	if err := s.progress.UpsertCompleted(ctx, &record); err != nil {
		return dto.ProgressRecord{}, err
	}

	// The caller observes an up-to-date percentage in the same response.
	// Recomputation failure does not undo the completion itself.
	summary, err := s.recompute(ctx, &enrollment)
	if err != nil {
		s.logger.Error().Err(err).
			Uint("enrollment_id", enrollment.ID).
			Msg("failed to recompute enrollment progress after completion")
		return dto.ProgressRecord{Percentage: enrollment.ProgressPercentage}, nil
	}

	return summary, nil
}

func (s *progressService) GetCourseProgress(ctx context.Context, userID, courseID uint) (dto.CourseProgressResponse, error) {
	ctx, span := s.tracer.Start(ctx, "progress.GetCourseProgress")
	defer span.End()

	enrollment, err := s.enrollments.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.CourseProgressResponse{}, ErrNotEnrolled
		}
		return dto.CourseProgressResponse{}, err
	}

	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return dto.CourseProgressResponse{}, err
	}

	rows, err := s.progress.ListByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return dto.CourseProgressResponse{}, err
	}

	byLesson := make(map[uint]models.LessonProgress, len(rows))
	for _, row := range rows {
		byLesson[row.LessonID] = row
	}

	detailed := make([]dto.LessonProgressEntry, 0, len(lessons))
	completed := 0
	for _, lesson := range lessons {
		entry := dto.LessonProgressEntry{
			LessonID:    lesson.ID,
			LessonTitle: lesson.Title,
		}
		if row, ok := byLesson[lesson.ID]; ok {
			entry.Completed = row.Completed
			entry.CompletedAt = row.CompletedAt
		}
		if entry.Completed {
			completed++
		}
		detailed = append(detailed, entry)
	}

	percentage := percentageOf(completed, len(lessons))

	// Self-heal: persist the recomputed aggregate when the stored value has
	// drifted from the lesson progress rows. Surfaced as an error here,
	// unlike the completion side effect.
	if enrollment.ProgressPercentage != percentage || (percentage == 100 && enrollment.CompletedAt == nil) {
		enrollment.ProgressPercentage = percentage
		if percentage == 100 && enrollment.CompletedAt == nil {
			now := s.now()
			enrollment.CompletedAt = &now
		}
		if err := s.enrollments.Update(ctx, &enrollment); err != nil {
			return dto.CourseProgressResponse{}, err
		}
	}

	return dto.CourseProgressResponse{
		EnrollmentID:       enrollment.ID,
		ProgressPercentage: enrollment.ProgressPercentage,
		CompletedLessons:   completed,
		TotalLessons:       len(lessons),
		CompletedAt:        enrollment.CompletedAt,
		DetailedProgress:   detailed,
	}, nil
}

// recompute recalculates the aggregate percentage and persists it onto the
// enrollment row. completed_at is set once when reaching 100 and never
// cleared by a later decrease in lesson count or progress.
func (s *progressService) recompute(ctx context.Context, enrollment *models.Enrollment) (dto.ProgressRecord, error) {
	total, err := s.courses.CountLessons(ctx, enrollment.CourseID)
	if err != nil {
		return dto.ProgressRecord{}, err
	}

	completed, err := s.progress.CountCompleted(ctx, enrollment.UserID, enrollment.CourseID)
	if err != nil {
		return dto.ProgressRecord{}, err
	}

	percentage := percentageOf(int(completed), int(total))

	enrollment.ProgressPercentage = percentage
	if percentage == 100 && enrollment.CompletedAt == nil {
		now := s.now()
		enrollment.CompletedAt = &now
	}

	if err := s.enrollments.Update(ctx, enrollment); err != nil {
		return dto.ProgressRecord{}, err
	}

	return dto.ProgressRecord{
		Percentage:     percentage,
		CompletedCount: int(completed),
		TotalCount:     int(total),
	}, nil
}

// percentageOf rounds 100*completed/total, defined as 0 for an empty course.
func percentageOf(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
