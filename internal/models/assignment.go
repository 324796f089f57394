package models

import "time"

// Assignment represents graded coursework attached to a course.
type Assignment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CourseID    uint      `gorm:"not null;index" json:"course_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	DueDate     time.Time `gorm:"not null" json:"due_date"`
	Points      float64   `gorm:"not null;default:100" json:"points"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

const (
	// SubmissionStatusSubmitted indicates the submission has been handed in but not graded.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusGraded indicates the submission has been evaluated.
	SubmissionStatusGraded = "graded"
	// SubmissionStatusReturned indicates the submission was handed back for rework.
	SubmissionStatusReturned = "returned"
)

// Submission represents a student's answer to an assignment. One row per
// (assignment_id, user_id); the unique index backstops duplicate hand-ins.
type Submission struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	AssignmentID uint       `gorm:"not null;uniqueIndex:idx_assignment_user" json:"assignment_id"`
	UserID       uint       `gorm:"not null;uniqueIndex:idx_assignment_user" json:"user_id"`
	Content      string     `gorm:"type:text" json:"content"`
	FileURL      string     `gorm:"size:512" json:"file_url"`
	Status       string     `gorm:"size:32;not null" json:"status"`
	Grade        *float64   `json:"grade"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Assignment   Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	User         User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
}

// IsGraded reports whether the submission has a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}
