package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/repository"
)

// lessonContentSchema constrains lesson content to an array of typed blocks.
const lessonContentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["type"],
    "properties": {
      "type": {"enum": ["text", "video", "quiz", "code"]},
      "body": {"type": "string"},
      "url": {"type": "string"},
      "language": {"type": "string"},
      "question": {"type": "string"},
      "options": {"type": "array", "items": {"type": "string"}},
      "answer_index": {"type": "integer", "minimum": 0}
    }
  }
}`

// ErrInvalidContent indicates the lesson content blocks failed schema
// validation.
var ErrInvalidContent = errors.New("lesson content does not match the expected block structure")

// LessonService exposes lesson authoring and delivery use cases.
type LessonService interface {
	ListByCourse(ctx context.Context, courseID uint, req Requester) ([]dto.LessonResponse, error)
	Get(ctx context.Context, courseID, lessonID uint, req Requester) (dto.LessonResponse, error)
	Create(ctx context.Context, courseID uint, payload dto.LessonCreateRequest, req Requester) (dto.LessonResponse, error)
	Update(ctx context.Context, courseID, lessonID uint, payload dto.LessonUpdateRequest, req Requester) (dto.LessonResponse, error)
	Delete(ctx context.Context, courseID, lessonID uint, req Requester) error
}

type lessonService struct {
	lessons     repository.LessonRepository
	sections    repository.SectionRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	progress    ProgressService
	schema      *jsonschema.Schema
	sanitizer   *bluemonday.Policy
	validator   *validator.Validate
	logger      zerolog.Logger
}

// NewLessonService builds a new lesson service. The content schema is
// compiled once at construction time.
func NewLessonService(lessons repository.LessonRepository, sections repository.SectionRepository, courses repository.CourseRepository, enrollments repository.EnrollmentRepository, progress ProgressService, validate *validator.Validate, logger zerolog.Logger) LessonService {
	schema := jsonschema.MustCompileString("lesson_content.json", lessonContentSchema)

	return &lessonService{
		lessons:     lessons,
		sections:    sections,
		courses:     courses,
		enrollments: enrollments,
		progress:    progress,
		schema:      schema,
		sanitizer:   bluemonday.UGCPolicy(),
		validator:   validate,
		logger:      logger.With().Str("component", "lesson_service").Logger(),
	}
}

func (s *lessonService) ListByCourse(ctx context.Context, courseID uint, req Requester) ([]dto.LessonResponse, error) {
	course, err := s.fetchCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	enrolled := isEnrolled(ctx, s.enrollments, req.ID, courseID)
	if !CanViewContent(course, req, enrolled) {
		return nil, ErrForbidden
	}

	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	return dto.NewLessonResponseSlice(lessons), nil
}

func (s *lessonService) Get(ctx context.Context, courseID, lessonID uint, req Requester) (dto.LessonResponse, error) {
	course, err := s.fetchCourse(ctx, courseID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	enrolled := isEnrolled(ctx, s.enrollments, req.ID, courseID)
	if !CanViewContent(course, req, enrolled) {
		return dto.LessonResponse{}, ErrForbidden
	}

	lesson, err := s.fetchLesson(ctx, courseID, lessonID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	// Viewing a lesson records progress best-effort; a failure here must
	// never fail the content fetch.
	if enrolled && req.Role == models.RoleStudent {
		s.progress.RecordLessonViewed(ctx, req.ID, lesson)
	}

	return dto.NewLessonDetailResponse(lesson), nil
}

func (s *lessonService) Create(ctx context.Context, courseID uint, payload dto.LessonCreateRequest, req Requester) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}

	course, err := s.fetchCourse(ctx, courseID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	if !CanManageCourse(course, req) {
		return dto.LessonResponse{}, ErrForbidden
	}

	section, err := s.sections.GetByID(ctx, payload.SectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonResponse{}, ErrSectionNotFound
		}
		return dto.LessonResponse{}, err
	}
	if section.CourseID != courseID {
		return dto.LessonResponse{}, ErrSectionNotFound
	}

	content, err := s.normalizeContent(payload.Content)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	max, err := s.lessons.MaxOrder(ctx, section.ID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	lesson := models.Lesson{
		CourseID:  courseID,
		SectionID: section.ID,
		Title:     payload.Title,
		Order:     max + 1,
		Content:   content,
	}

	if err := s.lessons.Create(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	s.logger.Info().Uint("lesson_id", lesson.ID).Uint("course_id", courseID).Msg("lesson created")

	return dto.NewLessonDetailResponse(lesson), nil
}

func (s *lessonService) Update(ctx context.Context, courseID, lessonID uint, payload dto.LessonUpdateRequest, req Requester) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}

	course, err := s.fetchCourse(ctx, courseID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	if !CanManageCourse(course, req) {
		return dto.LessonResponse{}, ErrForbidden
	}

	lesson, err := s.fetchLesson(ctx, courseID, lessonID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	if payload.Title != nil {
		lesson.Title = *payload.Title
	}

	if len(payload.Content) > 0 {
		content, err := s.normalizeContent(payload.Content)
		if err != nil {
			return dto.LessonResponse{}, err
		}
		lesson.Content = content
	}

	if err := s.lessons.Update(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	s.logger.Info().Uint("lesson_id", lesson.ID).Msg("lesson updated")

	return dto.NewLessonDetailResponse(lesson), nil
}

func (s *lessonService) Delete(ctx context.Context, courseID, lessonID uint, req Requester) error {
	course, err := s.fetchCourse(ctx, courseID)
	if err != nil {
		return err
	}

	if !CanManageCourse(course, req) {
		return ErrForbidden
	}

	lesson, err := s.fetchLesson(ctx, courseID, lessonID)
	if err != nil {
		return err
	}

	if err := s.lessons.DeleteCascade(ctx, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLessonNotFound
		}
		return err
	}

	// Compacts sibling ordering to 1..N; non-critical.
	if err := s.lessons.Resequence(ctx, lesson.SectionID); err != nil {
		s.logger.Warn().Err(err).Uint("section_id", lesson.SectionID).Msg("failed to resequence lessons after delete")
	}

	s.logger.Info().Uint("lesson_id", lessonID).Msg("lesson deleted")
	return nil
}

// normalizeContent validates content blocks against the schema and sanitizes
// every text body.
func (s *lessonService) normalizeContent(raw json.RawMessage) (datatypes.JSON, error) {
	var decoded interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	if err := s.schema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	blocks, ok := decoded.([]interface{})
	if !ok {
		return nil, ErrInvalidContent
	}

	for _, block := range blocks {
		fields, ok := block.(map[string]interface{})
		if !ok {
			continue
		}
		if body, ok := fields["body"].(string); ok {
			fields["body"] = s.sanitizer.Sanitize(body)
		}
	}

	normalized, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}

	return datatypes.JSON(normalized), nil
}

func (s *lessonService) fetchCourse(ctx context.Context, courseID uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	return course, nil
}

func (s *lessonService) fetchLesson(ctx context.Context, courseID, lessonID uint) (models.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Lesson{}, ErrLessonNotFound
		}
		return models.Lesson{}, err
	}

	if lesson.CourseID != courseID {
		return models.Lesson{}, ErrLessonNotFound
	}

	return lesson, nil
}
