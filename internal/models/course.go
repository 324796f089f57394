package models

import (
	"time"

	"gorm.io/datatypes"
)

// Difficulty levels accepted on a course.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Course is the root aggregate of the authoring domain. Sections and lessons
// belong to exactly one course and are removed with it.
type Course struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	InstructorID    uint      `gorm:"not null;index" json:"instructor_id"`
	IsPublished     bool      `gorm:"not null;default:false" json:"is_published"`
	Price           float64   `gorm:"not null;default:0" json:"price"`
	DifficultyLevel string    `gorm:"size:32" json:"difficulty_level"`
	Category        string    `gorm:"size:128;index" json:"category"`
	ThumbnailURL    string    `gorm:"size:512" json:"thumbnail_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Instructor      User      `json:"instructor"`
	Sections        []Section `json:"sections,omitempty"`
}

// Section groups lessons inside a course. order_index stays contiguous 1..N
// per course.
type Section struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	OrderIndex int       `gorm:"not null" json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Lessons    []Lesson  `json:"lessons,omitempty"`
}

// Lesson carries the actual teaching content as a JSON array of content
// blocks. Order stays contiguous 1..N per section.
type Lesson struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CourseID  uint           `gorm:"not null;index" json:"course_id"`
	SectionID uint           `gorm:"not null;index" json:"section_id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Order     int            `gorm:"column:lesson_order;not null" json:"order"`
	Content   datatypes.JSON `gorm:"type:jsonb" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CourseMaterial is a downloadable file attached to a course.
type CourseMaterial struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CourseID  uint      `gorm:"not null;index" json:"course_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	FileURL   string    `gorm:"size:512;not null" json:"file_url"`
	FileType  string    `gorm:"size:128" json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
