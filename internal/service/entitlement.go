package service

import "github.com/luminalms/lumina-api/internal/models"

// Requester identifies the caller of an operation. An unauthenticated caller
// has a zero ID and an empty role and fails every branch except published
// metadata reads.
type Requester struct {
	ID   uint
	Role string
}

// CanManageCourse reports whether the requester may mutate the course and its
// children: the owning instructor or an admin.
func CanManageCourse(course models.Course, req Requester) bool {
	if req.ID != 0 && req.ID == course.InstructorID {
		return true
	}
	return req.Role == models.RoleAdmin
}

// CanViewCourse reports whether the requester may read course metadata.
// Published courses are public; unpublished ones are visible only to the
// owner or an admin.
func CanViewCourse(course models.Course, req Requester) bool {
	if course.IsPublished {
		return true
	}
	return CanManageCourse(course, req)
}

// CanViewContent reports whether the requester may read lessons, materials
// and assignments of the course. Owners and admins always can; students need
// the course published and an enrollment.
func CanViewContent(course models.Course, req Requester, enrolled bool) bool {
	if CanManageCourse(course, req) {
		return true
	}
	return course.IsPublished && enrolled
}
