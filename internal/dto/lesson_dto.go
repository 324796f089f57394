package dto

import (
	"encoding/json"
	"time"

	"github.com/luminalms/lumina-api/internal/models"
)

// LessonCreateRequest describes the payload for creating a lesson.
type LessonCreateRequest struct {
	SectionID uint            `json:"section_id" validate:"required"`
	Title     string          `json:"title" validate:"required,min=1"`
	Content   json.RawMessage `json:"content" validate:"required"`
}

// LessonUpdateRequest describes the payload for updating a lesson.
type LessonUpdateRequest struct {
	Title   *string         `json:"title" validate:"omitempty,min=1"`
	Content json.RawMessage `json:"content"`
}

// LessonResponse is the serialized lesson representation.
type LessonResponse struct {
	ID        uint            `json:"id"`
	CourseID  uint            `json:"course_id"`
	SectionID uint            `json:"section_id"`
	Title     string          `json:"title"`
	Order     int             `json:"order"`
	Content   json.RawMessage `json:"content,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewLessonResponse converts a model into a DTO. Content is included only
// when withContent is requested by the caller via NewLessonDetailResponse.
func NewLessonResponse(model models.Lesson) LessonResponse {
	return LessonResponse{
		ID:        model.ID,
		CourseID:  model.CourseID,
		SectionID: model.SectionID,
		Title:     model.Title,
		Order:     model.Order,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// NewLessonDetailResponse converts a model into a DTO including the content
// blocks.
func NewLessonDetailResponse(model models.Lesson) LessonResponse {
	response := NewLessonResponse(model)
	response.Content = json.RawMessage(model.Content)
	return response
}

// NewLessonResponseSlice converts a slice of models into DTOs without
// content payloads.
func NewLessonResponseSlice(lessons []models.Lesson) []LessonResponse {
	responses := make([]LessonResponse, 0, len(lessons))
	for _, lesson := range lessons {
		responses = append(responses, NewLessonResponse(lesson))
	}

	return responses
}
