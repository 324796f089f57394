package service

import "errors"

// Not-found sentinels, mapped to 404 by handlers.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrCourseNotFound     = errors.New("course not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrMaterialNotFound   = errors.New("material not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)

// Authentication sentinels, mapped to 401.
var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// ErrForbidden marks an authenticated but unentitled request, mapped to 403.
var ErrForbidden = errors.New("insufficient permissions")

// Conflict sentinels, mapped to 409.
var (
	ErrEmailTaken       = errors.New("email already registered")
	ErrAlreadyEnrolled  = errors.New("already enrolled in this course")
	ErrAlreadyPublished = errors.New("course is already published")
	ErrAlreadySubmitted = errors.New("assignment already submitted")
)

// Domain validation sentinels, mapped to 400.
var (
	ErrNotEnrolled       = errors.New("not enrolled in this course")
	ErrInvalidLesson     = errors.New("lesson does not belong to this course")
	ErrCourseUnavailable = errors.New("course is not available for enrollment")
	ErrPastDue           = errors.New("assignment is past due")
	ErrSubmissionGraded  = errors.New("submission has already been graded")
	ErrGradeOutOfRange   = errors.New("grade exceeds assignment points")
)
