package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/repository"
)

// EnrollmentService exposes self-enrollment use cases.
type EnrollmentService interface {
	Enroll(ctx context.Context, payload dto.EnrollRequest, req Requester) (dto.EnrollmentResponse, error)
	ListMine(ctx context.Context, req Requester) ([]dto.EnrollmentResponse, error)
	Unenroll(ctx context.Context, enrollmentID uint, req Requester) error
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	events      EventPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewEnrollmentService builds a new enrollment service.
func NewEnrollmentService(enrollments repository.EnrollmentRepository, courses repository.CourseRepository, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		enrollments: enrollments,
		courses:     courses,
		events:      events,
		validator:   validate,
		logger:      logger.With().Str("component", "enrollment_service").Logger(),
		now:         time.Now,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, payload dto.EnrollRequest, req Requester) (dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentResponse{}, err
	}

	course, err := s.courses.GetByID(ctx, payload.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentResponse{}, ErrCourseNotFound
		}
		return dto.EnrollmentResponse{}, err
	}

	// Instructors may enroll into their own unpublished course for preview;
	// everyone else needs the course published.
	if !course.IsPublished && !CanManageCourse(course, req) {
		return dto.EnrollmentResponse{}, ErrCourseUnavailable
	}

	if _, err := s.enrollments.GetByUserAndCourse(ctx, req.ID, payload.CourseID); err == nil {
		return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.EnrollmentResponse{}, err
	}

	enrollment := models.Enrollment{
		UserID:     req.ID,
		CourseID:   payload.CourseID,
		EnrolledAt: s.now(),
	}

	// The pre-check above races with a concurrent enrollment from the same
	// user; the unique (user_id, course_id) index is the backstop.
	if err := s.enrollments.Create(ctx, &enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.EnrollmentResponse{}, ErrAlreadyEnrolled
		}
		return dto.EnrollmentResponse{}, err
	}

	created, err := s.enrollments.GetByID(ctx, enrollment.ID)
	if err != nil {
		return dto.EnrollmentResponse{}, err
	}

	s.events.Publish(EventEnrollmentCreated, dto.NewEnrollmentResponse(created))
	s.logger.Info().Uint("enrollment_id", created.ID).Uint("course_id", course.ID).Msg("user enrolled")

	return dto.NewEnrollmentResponse(created), nil
}

func (s *enrollmentService) ListMine(ctx context.Context, req Requester) ([]dto.EnrollmentResponse, error) {
	enrollments, err := s.enrollments.ListByUser(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewEnrollmentResponseSlice(enrollments), nil
}

func (s *enrollmentService) Unenroll(ctx context.Context, enrollmentID uint, req Requester) error {
	enrollment, err := s.enrollments.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return err
	}

	if enrollment.UserID != req.ID && req.Role != models.RoleAdmin {
		return ErrForbidden
	}

	if err := s.enrollments.Delete(ctx, enrollmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEnrollmentNotFound
		}
		return err
	}

	s.logger.Info().Uint("enrollment_id", enrollmentID).Msg("user unenrolled")
	return nil
}
