package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/repository"
)

// MaterialService exposes course material use cases.
type MaterialService interface {
	ListByCourse(ctx context.Context, courseID uint, req Requester) ([]dto.MaterialResponse, error)
	Upload(ctx context.Context, courseID uint, title string, file *multipart.FileHeader, req Requester) (dto.MaterialResponse, error)
	Delete(ctx context.Context, courseID, materialID uint, req Requester) error
}

type materialService struct {
	materials   repository.MaterialRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	uploader    FileUploader
	logger      zerolog.Logger
}

// NewMaterialService builds a new material service.
func NewMaterialService(materials repository.MaterialRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, uploader FileUploader, logger zerolog.Logger) MaterialService {
	return &materialService{
		materials:   materials,
		courses:     courses,
		enrollments: enrollments,
		uploader:    uploader,
		logger:      logger.With().Str("component", "material_service").Logger(),
	}
}

func (s *materialService) ListByCourse(ctx context.Context, courseID uint, req Requester) ([]dto.MaterialResponse, error) {
	course, err := s.fetchCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	enrolled := isEnrolled(ctx, s.enrollments, req.ID, courseID)
	if !CanViewContent(course, req, enrolled) {
		return nil, ErrForbidden
	}

	materials, err := s.materials.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewMaterialResponseSlice(materials), nil
}

func (s *materialService) Upload(ctx context.Context, courseID uint, title string, file *multipart.FileHeader, req Requester) (dto.MaterialResponse, error) {
	course, err := s.fetchCourse(ctx, courseID)
	if err != nil {
		return dto.MaterialResponse{}, err
	}

	if !CanManageCourse(course, req) {
		return dto.MaterialResponse{}, ErrForbidden
	}

	if file == nil {
		return dto.MaterialResponse{}, fmt.Errorf("material file is required")
	}

	fileType, err := detectFileType(file)
	if err != nil {
		return dto.MaterialResponse{}, err
	}

	url, err := uploadMultipart(ctx, s.uploader, file)
	if err != nil {
		return dto.MaterialResponse{}, err
	}

	if strings.TrimSpace(title) == "" {
		title = file.Filename
	}

	material := models.CourseMaterial{
		CourseID: courseID,
		Title:    title,
		FileURL:  url,
		FileType: fileType,
	}

	if err := s.materials.Create(ctx, &material); err != nil {
		return dto.MaterialResponse{}, err
	}

	s.logger.Info().Uint("material_id", material.ID).Uint("course_id", courseID).Msg("material uploaded")

	return dto.NewMaterialResponse(material), nil
}

func (s *materialService) Delete(ctx context.Context, courseID, materialID uint, req Requester) error {
	course, err := s.fetchCourse(ctx, courseID)
	if err != nil {
		return err
	}

	if !CanManageCourse(course, req) {
		return ErrForbidden
	}

	material, err := s.materials.GetByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMaterialNotFound
		}
		return err
	}
	if material.CourseID != courseID {
		return ErrMaterialNotFound
	}

	if err := s.materials.Delete(ctx, materialID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMaterialNotFound
		}
		return err
	}

	s.logger.Info().Uint("material_id", materialID).Msg("material deleted")
	return nil
}

func (s *materialService) fetchCourse(ctx context.Context, courseID uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	return course, nil
}
