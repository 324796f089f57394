package dto

import (
	"time"

	"github.com/luminalms/lumina-api/internal/models"
)

// EnrollRequest describes the payload for self-enrolling into a course.
type EnrollRequest struct {
	CourseID uint `json:"course_id" validate:"required"`
}

// EnrollmentResponse is the serialized enrollment representation.
type EnrollmentResponse struct {
	ID                 uint           `json:"id"`
	UserID             uint           `json:"user_id"`
	CourseID           uint           `json:"course_id"`
	ProgressPercentage int            `json:"progress_percentage"`
	EnrolledAt         time.Time      `json:"enrolled_at"`
	CompletedAt        *time.Time     `json:"completed_at"`
	Course             CourseResponse `json:"course"`
}

// LessonProgressEntry is one row of the detailed progress breakdown.
type LessonProgressEntry struct {
	LessonID    uint       `json:"lesson_id"`
	LessonTitle string     `json:"lesson_title"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// CourseProgressResponse is the payload of the progress read endpoint.
type CourseProgressResponse struct {
	EnrollmentID       uint                  `json:"enrollment_id"`
	ProgressPercentage int                   `json:"progress_percentage"`
	CompletedLessons   int                   `json:"completed_lessons"`
	TotalLessons       int                   `json:"total_lessons"`
	CompletedAt        *time.Time            `json:"completed_at"`
	DetailedProgress   []LessonProgressEntry `json:"detailed_progress"`
}

// ProgressRecord summarises the aggregate state after a completion event.
type ProgressRecord struct {
	Percentage     int `json:"percentage"`
	CompletedCount int `json:"completed_count"`
	TotalCount     int `json:"total_count"`
}

// NewEnrollmentResponse converts a model into a DTO.
func NewEnrollmentResponse(model models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:                 model.ID,
		UserID:             model.UserID,
		CourseID:           model.CourseID,
		ProgressPercentage: model.ProgressPercentage,
		EnrolledAt:         model.EnrolledAt,
		CompletedAt:        model.CompletedAt,
		Course:             NewCourseResponse(model.Course),
	}
}

// NewEnrollmentResponseSlice converts a slice of models into DTOs.
func NewEnrollmentResponseSlice(enrollments []models.Enrollment) []EnrollmentResponse {
	responses := make([]EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		responses = append(responses, NewEnrollmentResponse(enrollment))
	}

	return responses
}
