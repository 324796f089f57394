package dto

import (
	"time"

	"github.com/luminalms/lumina-api/internal/models"
)

// MaterialResponse is the serialized course material representation.
type MaterialResponse struct {
	ID        uint      `json:"id"`
	CourseID  uint      `json:"course_id"`
	Title     string    `json:"title"`
	FileURL   string    `json:"file_url"`
	FileType  string    `json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMaterialResponse converts a model into a DTO.
func NewMaterialResponse(model models.CourseMaterial) MaterialResponse {
	return MaterialResponse{
		ID:        model.ID,
		CourseID:  model.CourseID,
		Title:     model.Title,
		FileURL:   model.FileURL,
		FileType:  model.FileType,
		CreatedAt: model.CreatedAt,
	}
}

// NewMaterialResponseSlice converts a slice of models into DTOs.
func NewMaterialResponseSlice(materials []models.CourseMaterial) []MaterialResponse {
	responses := make([]MaterialResponse, 0, len(materials))
	for _, material := range materials {
		responses = append(responses, NewMaterialResponse(material))
	}

	return responses
}
