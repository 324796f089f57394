package models

import "time"

// Enrollment joins a student to a course and carries the aggregated
// completion percentage. The (user_id, course_id) pair is unique; the
// database index is the backstop against concurrent double-enrollment.
type Enrollment struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `gorm:"not null;uniqueIndex:idx_user_course" json:"user_id"`
	CourseID           uint       `gorm:"not null;uniqueIndex:idx_user_course" json:"course_id"`
	ProgressPercentage int        `gorm:"not null;default:0" json:"progress_percentage"`
	EnrolledAt         time.Time  `gorm:"not null" json:"enrolled_at"`
	CompletedAt        *time.Time `json:"completed_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	Course             Course     `json:"course"`
}

// IsCompleted reports whether the enrollment has reached full completion.
func (e Enrollment) IsCompleted() bool {
	return e.CompletedAt != nil
}

// LessonProgress marks a single lesson as seen or completed by a user. Keyed
// by (user_id, lesson_id) so the record survives re-enrollment.
type LessonProgress struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"not null;uniqueIndex:idx_user_lesson" json:"user_id"`
	LessonID    uint       `gorm:"not null;uniqueIndex:idx_user_lesson" json:"lesson_id"`
	CourseID    uint       `gorm:"not null;index" json:"course_id"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
