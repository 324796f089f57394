package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/repository"
)

// AssignmentService exposes assignment authoring use cases.
type AssignmentService interface {
	ListByCourse(ctx context.Context, courseID uint, req Requester) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, id uint, req Requester) (dto.AssignmentResponse, error)
	Create(ctx context.Context, payload dto.AssignmentCreateRequest, req Requester) (dto.AssignmentResponse, error)
	Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest, req Requester) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, id uint, req Requester) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(assignments repository.AssignmentRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		courses:     courses,
		enrollments: enrollments,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) ListByCourse(ctx context.Context, courseID uint, req Requester) ([]dto.AssignmentResponse, error) {
	course, err := s.fetchCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	enrolled := isEnrolled(ctx, s.enrollments, req.ID, courseID)
	if !CanViewContent(course, req, enrolled) {
		return nil, ErrForbidden
	}

	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, id uint, req Requester) (dto.AssignmentResponse, error) {
	assignment, err := s.fetchAssignment(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	course, err := s.fetchCourse(ctx, assignment.CourseID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	enrolled := isEnrolled(ctx, s.enrollments, req.ID, assignment.CourseID)
	if !CanViewContent(course, req, enrolled) {
		return dto.AssignmentResponse{}, ErrForbidden
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest, req Requester) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	course, err := s.fetchCourse(ctx, payload.CourseID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if !CanManageCourse(course, req) {
		return dto.AssignmentResponse{}, ErrForbidden
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", err)
	}

	assignment := models.Assignment{
		CourseID:    payload.CourseID,
		Title:       payload.Title,
		Description: payload.Description,
		DueDate:     dueDate,
		Points:      payload.Points,
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("course_id", course.ID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, id uint, payload dto.AssignmentUpdateRequest, req Requester) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.fetchAssignment(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	course, err := s.fetchCourse(ctx, assignment.CourseID)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	if !CanManageCourse(course, req) {
		return dto.AssignmentResponse{}, ErrForbidden
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = *payload.Description
	}
	if payload.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", err)
		}
		assignment.DueDate = dueDate
	}
	if payload.Points != nil {
		assignment.Points = *payload.Points
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Delete(ctx context.Context, id uint, req Requester) error {
	assignment, err := s.fetchAssignment(ctx, id)
	if err != nil {
		return err
	}

	course, err := s.fetchCourse(ctx, assignment.CourseID)
	if err != nil {
		return err
	}

	if !CanManageCourse(course, req) {
		return ErrForbidden
	}

	if err := s.assignments.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}

func (s *assignmentService) fetchAssignment(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (s *assignmentService) fetchCourse(ctx context.Context, courseID uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	return course, nil
}
