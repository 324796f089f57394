package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/repository"
)

const defaultCatalogPageSize = 20

// CatalogPage bundles a catalog listing with pagination metadata.
type CatalogPage struct {
	Courses     []dto.CourseResponse `json:"courses"`
	Total       int64                `json:"total"`
	TotalPages  int                  `json:"total_pages"`
	CurrentPage int                  `json:"current_page"`
}

// CourseService exposes course authoring and catalog use cases.
type CourseService interface {
	List(ctx context.Context, query dto.CourseListQuery, req Requester) (CatalogPage, error)
	Get(ctx context.Context, id uint, req Requester) (dto.CourseResponse, error)
	Create(ctx context.Context, payload dto.CourseCreateRequest, req Requester) (dto.CourseResponse, error)
	Update(ctx context.Context, id uint, payload dto.CourseUpdateRequest, req Requester) (dto.CourseResponse, error)
	Publish(ctx context.Context, id uint, req Requester) (dto.CourseResponse, error)
	Delete(ctx context.Context, id uint, req Requester) error
}

type courseService struct {
	courses   repository.CourseRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	events    EventPublisher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewCourseService builds a new course service.
func NewCourseService(courses repository.CourseRepository, cache *redis.Client, cacheTTL time.Duration, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) CourseService {
	return &courseService{
		courses:   courses,
		cache:     cache,
		cacheTTL:  cacheTTL,
		events:    events,
		validator: validate,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) List(ctx context.Context, query dto.CourseListQuery, req Requester) (CatalogPage, error) {
	if err := s.validator.Struct(query); err != nil {
		return CatalogPage{}, err
	}

	page := query.Page
	if page <= 0 {
		page = 1
	}
	limit := query.Limit
	if limit <= 0 {
		limit = defaultCatalogPageSize
	}

	filter := repository.CourseFilter{
		Search:          query.Search,
		Category:        query.Category,
		DifficultyLevel: query.DifficultyLevel,
		PriceMin:        query.PriceMin,
		PriceMax:        query.PriceMax,
		SortBy:          query.SortBy,
		SortOrder:       query.SortOrder,
		Page:            page,
		PageSize:        limit,
		PublishedOnly:   true,
	}

	// Instructors browsing their own catalog see unpublished courses too;
	// admins see everything.
	if query.Mine && req.Role == models.RoleInstructor {
		filter.InstructorID = &req.ID
		filter.PublishedOnly = false
	}
	if req.Role == models.RoleAdmin {
		filter.PublishedOnly = false
	}

	cacheKey := s.catalogCacheKey(filter)
	if cached, ok := s.readCatalogCache(ctx, cacheKey); ok {
		return cached, nil
	}

	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return CatalogPage{}, err
	}

	result := CatalogPage{
		Courses:     dto.NewCourseResponseSlice(courses),
		Total:       total,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		CurrentPage: page,
	}

	s.writeCatalogCache(ctx, cacheKey, result)

	return result, nil
}

func (s *courseService) Get(ctx context.Context, id uint, req Requester) (dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if !CanViewCourse(course, req) {
		return dto.CourseResponse{}, ErrForbidden
	}

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Create(ctx context.Context, payload dto.CourseCreateRequest, req Requester) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	if req.Role != models.RoleInstructor && req.Role != models.RoleAdmin {
		return dto.CourseResponse{}, ErrForbidden
	}

	course := models.Course{
		Title:           payload.Title,
		Description:     s.sanitizer.Sanitize(payload.Description),
		InstructorID:    req.ID,
		Price:           payload.Price,
		DifficultyLevel: payload.DifficultyLevel,
		Category:        payload.Category,
		ThumbnailURL:    payload.ThumbnailURL,
	}

	if err := s.courses.Create(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.invalidateCatalogCache(ctx)
	s.logger.Info().Uint("course_id", course.ID).Uint("instructor_id", req.ID).Msg("course created")

	created, err := s.courses.GetByID(ctx, course.ID)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	return dto.NewCourseResponse(created), nil
}

func (s *courseService) Update(ctx context.Context, id uint, payload dto.CourseUpdateRequest, req Requester) (dto.CourseResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CourseResponse{}, err
	}

	course, err := s.getCourse(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if !CanManageCourse(course, req) {
		return dto.CourseResponse{}, ErrForbidden
	}

	if payload.Title != nil {
		course.Title = *payload.Title
	}
	if payload.Description != nil {
		course.Description = s.sanitizer.Sanitize(*payload.Description)
	}
	if payload.Price != nil {
		course.Price = *payload.Price
	}
	if payload.DifficultyLevel != nil {
		course.DifficultyLevel = *payload.DifficultyLevel
	}
	if payload.Category != nil {
		course.Category = *payload.Category
	}
	if payload.ThumbnailURL != nil {
		course.ThumbnailURL = *payload.ThumbnailURL
	}

	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.invalidateCatalogCache(ctx)
	s.logger.Info().Uint("course_id", course.ID).Msg("course updated")

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Publish(ctx context.Context, id uint, req Requester) (dto.CourseResponse, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return dto.CourseResponse{}, err
	}

	if !CanManageCourse(course, req) {
		return dto.CourseResponse{}, ErrForbidden
	}

	if course.IsPublished {
		return dto.CourseResponse{}, ErrAlreadyPublished
	}

	course.IsPublished = true
	if err := s.courses.Update(ctx, &course); err != nil {
		return dto.CourseResponse{}, err
	}

	s.invalidateCatalogCache(ctx)
	s.events.Publish(EventCoursePublished, dto.NewCourseResponse(course))
	s.logger.Info().Uint("course_id", course.ID).Msg("course published")

	return dto.NewCourseResponse(course), nil
}

func (s *courseService) Delete(ctx context.Context, id uint, req Requester) error {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return err
	}

	if !CanManageCourse(course, req) {
		return ErrForbidden
	}

	if err := s.courses.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}

	s.invalidateCatalogCache(ctx)
	s.logger.Info().Uint("course_id", id).Msg("course deleted")
	return nil
}

func (s *courseService) getCourse(ctx context.Context, id uint) (models.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Course{}, ErrCourseNotFound
		}
		return models.Course{}, err
	}

	return course, nil
}

func (s *courseService) catalogCacheKey(filter repository.CourseFilter) string {
	payload, err := json.Marshal(filter)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("catalog:%x", payload)
}

func (s *courseService) readCatalogCache(ctx context.Context, key string) (CatalogPage, bool) {
	if s.cache == nil || key == "" {
		return CatalogPage{}, false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read catalog cache")
		}
		return CatalogPage{}, false
	}

	var page CatalogPage
	if err := json.Unmarshal([]byte(cached), &page); err != nil {
		return CatalogPage{}, false
	}

	s.logger.Debug().Str("key", key).Msg("catalog cache hit")
	return page, true
}

func (s *courseService) writeCatalogCache(ctx context.Context, key string, page CatalogPage) {
	if s.cache == nil || key == "" {
		return
	}

	payload, err := json.Marshal(page)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store catalog cache")
	}
}

// invalidateCatalogCache drops all cached catalog pages. Best effort: a stale
// page expires with the TTL anyway.
func (s *courseService) invalidateCatalogCache(ctx context.Context) {
	if s.cache == nil {
		return
	}

	iter := s.cache.Scan(ctx, 0, "catalog:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.cache.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate catalog cache entry")
			return
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to scan catalog cache keys")
	}
}
