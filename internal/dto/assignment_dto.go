package dto

import (
	"time"

	"github.com/luminalms/lumina-api/internal/models"
)

// AssignmentCreateRequest describes the payload for creating an assignment.
type AssignmentCreateRequest struct {
	CourseID    uint    `json:"course_id" validate:"required"`
	Title       string  `json:"title" validate:"required,min=3"`
	Description string  `json:"description" validate:"omitempty"`
	DueDate     string  `json:"due_date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Points      float64 `json:"points" validate:"gt=0"`
}

// AssignmentUpdateRequest describes the payload for updating an assignment.
type AssignmentUpdateRequest struct {
	Title       *string  `json:"title" validate:"omitempty,min=3"`
	Description *string  `json:"description"`
	DueDate     *string  `json:"due_date" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Points      *float64 `json:"points" validate:"omitempty,gt=0"`
}

// AssignmentResponse is the serialized assignment representation.
type AssignmentResponse struct {
	ID          uint      `json:"id"`
	CourseID    uint      `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
	Points      float64   `json:"points"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:          model.ID,
		CourseID:    model.CourseID,
		Title:       model.Title,
		Description: model.Description,
		DueDate:     model.DueDate,
		Points:      model.Points,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
