package dto

import (
	"time"

	"github.com/luminalms/lumina-api/internal/models"
)

// SubmissionCreateRequest describes the payload for handing in an assignment.
type SubmissionCreateRequest struct {
	Content string `form:"content" json:"content" validate:"omitempty"`
}

// GradeRequest describes the payload for grading a submission.
type GradeRequest struct {
	Grade    float64 `json:"grade" validate:"gte=0"`
	Feedback string  `json:"feedback" validate:"omitempty"`
}

// SubmissionResponse is the serialized submission representation.
type SubmissionResponse struct {
	ID           uint               `json:"id"`
	AssignmentID uint               `json:"assignment_id"`
	UserID       uint               `json:"user_id"`
	Content      string             `json:"content"`
	FileURL      string             `json:"file_url"`
	Status       string             `json:"status"`
	Grade        *float64           `json:"grade"`
	Feedback     string             `json:"feedback"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Assignment   AssignmentResponse `json:"assignment"`
	User         UserResponse       `json:"user"`
}

// NewSubmissionResponse converts a model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:           model.ID,
		AssignmentID: model.AssignmentID,
		UserID:       model.UserID,
		Content:      model.Content,
		FileURL:      model.FileURL,
		Status:       model.Status,
		Grade:        model.Grade,
		Feedback:     model.Feedback,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
		Assignment:   NewAssignmentResponse(model.Assignment),
		User:         NewUserResponse(model.User),
	}
}

// NewSubmissionResponseSlice converts a slice of models into DTOs.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
