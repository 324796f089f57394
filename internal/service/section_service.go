package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/repository"
)

// SectionService exposes section authoring use cases.
type SectionService interface {
	ListByCourse(ctx context.Context, courseID uint, req Requester) ([]dto.SectionResponse, error)
	Create(ctx context.Context, courseID uint, payload dto.SectionCreateRequest, req Requester) (dto.SectionResponse, error)
	Update(ctx context.Context, courseID, sectionID uint, payload dto.SectionUpdateRequest, req Requester) (dto.SectionResponse, error)
	Delete(ctx context.Context, courseID, sectionID uint, req Requester) error
}

type sectionService struct {
	sections    repository.SectionRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewSectionService builds a new section service.
func NewSectionService(sections repository.SectionRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, validate *validator.Validate, logger zerolog.Logger) SectionService {
	return &sectionService{
		sections:    sections,
		courses:     courses,
		enrollments: enrollments,
		validator:   validate,
		logger:      logger.With().Str("component", "section_service").Logger(),
	}
}

func (s *sectionService) ListByCourse(ctx context.Context, courseID uint, req Requester) ([]dto.SectionResponse, error) {
	course, err := s.fetchCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	enrolled := isEnrolled(ctx, s.enrollments, req.ID, courseID)
	if !CanViewContent(course, req, enrolled) {
		return nil, ErrForbidden
	}

	sections, err := s.sections.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewSectionResponseSlice(sections), nil
}

func (s *sectionService) Create(ctx context.Context, courseID uint, payload dto.SectionCreateRequest, req Requester) (dto.SectionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SectionResponse{}, err
	}

	course, err := s.fetchCourse(ctx, courseID)
	if err != nil {
		return dto.SectionResponse{}, err
	}

	if !CanManageCourse(course, req) {
		return dto.SectionResponse{}, ErrForbidden
	}

	max, err := s.sections.MaxOrderIndex(ctx, courseID)
	if err != nil {
		return dto.SectionResponse{}, err
	}

	section := models.Section{
		CourseID:   courseID,
		Title:      payload.Title,
		OrderIndex: max + 1,
	}

	if err := s.sections.Create(ctx, &section); err != nil {
		return dto.SectionResponse{}, err
	}

	s.logger.Info().Uint("section_id", section.ID).Uint("course_id", courseID).Msg("section created")

	return dto.NewSectionResponse(section), nil
}

func (s *sectionService) Update(ctx context.Context, courseID, sectionID uint, payload dto.SectionUpdateRequest, req Requester) (dto.SectionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SectionResponse{}, err
	}

	course, err := s.fetchCourse(ctx, courseID)
	if err != nil {
		return dto.SectionResponse{}, err
	}

	if !CanManageCourse(course, req) {
		return dto.SectionResponse{}, ErrForbidden
	}

	section, err := s.fetchSection(ctx, courseID, sectionID)
	if err != nil {
		return dto.SectionResponse{}, err
	}

	if payload.Title != nil {
		section.Title = *payload.Title
	}

	if err := s.sections.Update(ctx, &section); err != nil {
		return dto.SectionResponse{}, err
	}

	s.logger.Info().Uint("section_id", section.ID).Msg("section updated")

	return dto.NewSectionResponse(section), nil
}

func (s *sectionService) Delete(ctx context.Context, courseID, sectionID uint, req Requester) error {
	course, err := s.fetchCourse(ctx, courseID)
	if err != nil {
		return err
	}

	if !CanManageCourse(course, req) {
		return ErrForbidden
	}

	if _, err := s.fetchSection(ctx, courseID, sectionID); err != nil {
		return err
	}

	if err := s.sections.DeleteCascade(ctx, sectionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSectionNotFound
		}
		return err
	}

	// Sibling compaction is non-critical: a gap in order_index is repaired on
	// the next delete and must not fail the primary operation.
	if err := s.sections.Resequence(ctx, courseID); err != nil {
		s.logger.Warn().Err(err).Uint("course_id", courseID).Msg("failed to resequence sections after delete")
	}

	s.logger.Info().Uint("section_id", sectionID).Msg("section deleted")
	return nil
}

func (s *sectionService) fetchCourse(ctx context.Context, courseID uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	return course, nil
}

func (s *sectionService) fetchSection(ctx context.Context, courseID, sectionID uint) (models.Section, error) {
	section, err := s.sections.GetByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Section{}, ErrSectionNotFound
		}
		return models.Section{}, err
	}

	if section.CourseID != courseID {
		return models.Section{}, ErrSectionNotFound
	}

	return section, nil
}

// isEnrolled is a shared read used by content visibility checks.
func isEnrolled(ctx context.Context, enrollments repository.EnrollmentRepository, userID, courseID uint) bool {
	if userID == 0 {
		return false
	}
	_, err := enrollments.GetByUserAndCourse(ctx, userID, courseID)
	return err == nil
}
