package dto

import (
	"time"

	"github.com/luminalms/lumina-api/internal/models"
)

// CourseCreateRequest describes the payload for creating a course.
type CourseCreateRequest struct {
	Title           string  `json:"title" validate:"required,min=3"`
	Description     string  `json:"description" validate:"omitempty"`
	Price           float64 `json:"price" validate:"gte=0"`
	DifficultyLevel string  `json:"difficulty_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Category        string  `json:"category" validate:"omitempty,max=128"`
	ThumbnailURL    string  `json:"thumbnail_url" validate:"omitempty,url"`
}

// CourseUpdateRequest describes the payload for updating a course. The
// instructor is immutable and deliberately absent.
type CourseUpdateRequest struct {
	Title           *string  `json:"title" validate:"omitempty,min=3"`
	Description     *string  `json:"description"`
	Price           *float64 `json:"price" validate:"omitempty,gte=0"`
	DifficultyLevel *string  `json:"difficulty_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Category        *string  `json:"category" validate:"omitempty,max=128"`
	ThumbnailURL    *string  `json:"thumbnail_url" validate:"omitempty,url"`
}

// CourseListQuery captures catalog filters from the query string.
type CourseListQuery struct {
	Page            int     `query:"page" validate:"omitempty,gte=1"`
	Limit           int     `query:"limit" validate:"omitempty,gte=1,lte=100"`
	SortBy          string  `query:"sort_by" validate:"omitempty,oneof=title price created_at"`
	SortOrder       string  `query:"sort_order" validate:"omitempty,oneof=asc desc"`
	Category        string  `query:"category"`
	DifficultyLevel string  `query:"difficulty_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	PriceMin        *float64 `query:"price_min" validate:"omitempty,gte=0"`
	PriceMax        *float64 `query:"price_max" validate:"omitempty,gte=0"`
	Search          string  `query:"search"`
	Mine            bool    `query:"mine"`
}

// CourseResponse is the serialized course representation returned to clients.
type CourseResponse struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	InstructorID    uint      `json:"instructor_id"`
	InstructorName  string    `json:"instructor_name"`
	IsPublished     bool      `json:"is_published"`
	Price           float64   `json:"price"`
	DifficultyLevel string    `json:"difficulty_level"`
	Category        string    `json:"category"`
	ThumbnailURL    string    `json:"thumbnail_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewCourseResponse converts a model into a DTO.
func NewCourseResponse(model models.Course) CourseResponse {
	name := model.Instructor.FirstName
	if model.Instructor.LastName != "" {
		if name != "" {
			name += " "
		}
		name += model.Instructor.LastName
	}

	return CourseResponse{
		ID:              model.ID,
		Title:           model.Title,
		Description:     model.Description,
		InstructorID:    model.InstructorID,
		InstructorName:  name,
		IsPublished:     model.IsPublished,
		Price:           model.Price,
		DifficultyLevel: model.DifficultyLevel,
		Category:        model.Category,
		ThumbnailURL:    model.ThumbnailURL,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

// NewCourseResponseSlice converts a slice of models into DTOs.
func NewCourseResponseSlice(courses []models.Course) []CourseResponse {
	responses := make([]CourseResponse, 0, len(courses))
	for _, course := range courses {
		responses = append(responses, NewCourseResponse(course))
	}

	return responses
}
