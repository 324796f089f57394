package service

import (
	"context"
	"errors"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/repository"
)

// SubmissionService orchestrates assignment hand-in and grading workflows.
type SubmissionService interface {
	Submit(ctx context.Context, assignmentID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader, req Requester) (dto.SubmissionResponse, error)
	ListByAssignment(ctx context.Context, assignmentID uint, req Requester) ([]dto.SubmissionResponse, error)
	GetMine(ctx context.Context, assignmentID uint, req Requester) (dto.SubmissionResponse, error)
	Grade(ctx context.Context, assignmentID, submissionID uint, payload dto.GradeRequest, req Requester) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	events      EventPublisher
	uploader    FileUploader
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(submissions repository.SubmissionRepository, assignments repository.AssignmentRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, events EventPublisher, uploader FileUploader, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		courses:     courses,
		enrollments: enrollments,
		events:      events,
		uploader:    uploader,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, assignmentID uint, payload dto.SubmissionCreateRequest, file *multipart.FileHeader, req Requester) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.fetchAssignment(ctx, assignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if !isEnrolled(ctx, s.enrollments, req.ID, assignment.CourseID) {
		return dto.SubmissionResponse{}, ErrNotEnrolled
	}

	if assignment.IsPastDue(s.now()) {
		return dto.SubmissionResponse{}, ErrPastDue
	}

	existing, err := s.submissions.GetByAssignmentAndUser(ctx, assignmentID, req.ID)
	switch {
	case err == nil:
		// Resubmission overwrites the pending hand-in but a graded one is
		// immutable to the student.
		if existing.IsGraded() {
			return dto.SubmissionResponse{}, ErrSubmissionGraded
		}
		return s.resubmit(ctx, existing, payload, file)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		AssignmentID: assignmentID,
		UserID:       req.ID,
		Content:      payload.Content,
		Status:       models.SubmissionStatusSubmitted,
	}

	if file != nil {
		if _, err := detectFileType(file); err != nil {
			return dto.SubmissionResponse{}, err
		}
		url, err := uploadMultipart(ctx, s.uploader, file)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		submission.FileURL = url
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.SubmissionResponse{}, ErrAlreadySubmitted
		}
		return dto.SubmissionResponse{}, err
	}

	created, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", created.ID).Uint("assignment_id", assignmentID).Msg("submission created")

	return dto.NewSubmissionResponse(created), nil
}

func (s *submissionService) resubmit(ctx context.Context, submission models.Submission, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	submission.Content = payload.Content
	submission.Status = models.SubmissionStatusSubmitted

	if file != nil {
		if _, err := detectFileType(file); err != nil {
			return dto.SubmissionResponse{}, err
		}
		url, err := uploadMultipart(ctx, s.uploader, file)
		if err != nil {
			return dto.SubmissionResponse{}, err
		}
		submission.FileURL = url
	}

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	updated, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", updated.ID).Msg("submission replaced")

	return dto.NewSubmissionResponse(updated), nil
}

func (s *submissionService) ListByAssignment(ctx context.Context, assignmentID uint, req Requester) ([]dto.SubmissionResponse, error) {
	assignment, err := s.fetchAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	course, err := s.fetchCourse(ctx, assignment.CourseID)
	if err != nil {
		return nil, err
	}

	if !CanManageCourse(course, req) {
		return nil, ErrForbidden
	}

	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{AssignmentID: &assignmentID})
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) GetMine(ctx context.Context, assignmentID uint, req Requester) (dto.SubmissionResponse, error) {
	if _, err := s.fetchAssignment(ctx, assignmentID); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByAssignmentAndUser(ctx, assignmentID, req.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Grade(ctx context.Context, assignmentID, submissionID uint, payload dto.GradeRequest, req Requester) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.fetchAssignment(ctx, assignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	course, err := s.fetchCourse(ctx, assignment.CourseID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	if !CanManageCourse(course, req) {
		return dto.SubmissionResponse{}, ErrForbidden
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if submission.AssignmentID != assignmentID {
		return dto.SubmissionResponse{}, ErrSubmissionNotFound
	}

	if payload.Grade > assignment.Points {
		return dto.SubmissionResponse{}, ErrGradeOutOfRange
	}

	grade := payload.Grade
	submission.Grade = &grade
	submission.Feedback = payload.Feedback
	submission.Status = models.SubmissionStatusGraded

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	updated, err := s.submissions.GetByID(ctx, submission.ID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.events.Publish(EventSubmissionGraded, dto.NewSubmissionResponse(updated))
	s.logger.Info().Uint("submission_id", updated.ID).Float64("grade", grade).Msg("submission graded")

	return dto.NewSubmissionResponse(updated), nil
}

func (s *submissionService) fetchAssignment(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (s *submissionService) fetchCourse(ctx context.Context, courseID uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	return course, nil
}
