package dto

import (
	"time"

	"github.com/luminalms/lumina-api/internal/models"
)

// SectionCreateRequest describes the payload for creating a section.
type SectionCreateRequest struct {
	Title string `json:"title" validate:"required,min=1"`
}

// SectionUpdateRequest describes the payload for renaming a section.
type SectionUpdateRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1"`
}

// SectionResponse is the serialized section representation.
type SectionResponse struct {
	ID         uint             `json:"id"`
	CourseID   uint             `json:"course_id"`
	Title      string           `json:"title"`
	OrderIndex int              `json:"order_index"`
	Lessons    []LessonResponse `json:"lessons,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// NewSectionResponse converts a model into a DTO.
func NewSectionResponse(model models.Section) SectionResponse {
	response := SectionResponse{
		ID:         model.ID,
		CourseID:   model.CourseID,
		Title:      model.Title,
		OrderIndex: model.OrderIndex,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}

	if len(model.Lessons) > 0 {
		response.Lessons = NewLessonResponseSlice(model.Lessons)
	}

	return response
}

// NewSectionResponseSlice converts a slice of models into DTOs.
func NewSectionResponseSlice(sections []models.Section) []SectionResponse {
	responses := make([]SectionResponse, 0, len(sections))
	for _, section := range sections {
		responses = append(responses, NewSectionResponse(section))
	}

	return responses
}
