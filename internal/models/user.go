package models

import "time"

// Role values assignable to a user account.
const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// User represents an account that can authenticate against the API.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FirstName    string    `gorm:"size:255;not null" json:"first_name"`
	LastName     string    `gorm:"size:255;not null" json:"last_name"`
	Role         string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsInstructor reports whether the user holds the instructor role.
func (u User) IsInstructor() bool {
	return u.Role == RoleInstructor
}

// ValidRole reports whether the supplied role is one of the known values.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	default:
		return false
	}
}
