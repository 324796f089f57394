package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/models"
)

func sectionFixture(t *testing.T) (*memorySectionRepo, *memoryEnrollmentRepo, SectionService) {
	t.Helper()

	sections := newMemorySectionRepo()
	courses := newMemoryCourseRepo()
	enrollments := newMemoryEnrollmentRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())

	require.NoError(t, courses.Create(context.Background(), &models.Course{Title: "Go Basics", InstructorID: 9, IsPublished: true}))
	require.NoError(t, courses.Create(context.Background(), &models.Course{Title: "Draft", InstructorID: 9}))

	svc := NewSectionService(sections, courses, enrollments, validate, testLogger())
	return sections, enrollments, svc
}

func TestSectionCreateAppendsOrder(t *testing.T) {
	_, _, svc := sectionFixture(t)

	owner := Requester{ID: 9, Role: models.RoleInstructor}

	first, err := svc.Create(context.Background(), 1, dto.SectionCreateRequest{Title: "Intro"}, owner)
	require.NoError(t, err)
	require.Equal(t, 1, first.OrderIndex)

	second, err := svc.Create(context.Background(), 1, dto.SectionCreateRequest{Title: "Types"}, owner)
	require.NoError(t, err)
	require.Equal(t, 2, second.OrderIndex)
}

func TestSectionCreateForbiddenForNonOwner(t *testing.T) {
	_, _, svc := sectionFixture(t)

	_, err := svc.Create(context.Background(), 1, dto.SectionCreateRequest{Title: "Intro"}, Requester{ID: 5, Role: models.RoleInstructor})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Create(context.Background(), 1, dto.SectionCreateRequest{Title: "Intro"}, Requester{ID: 1, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Create(context.Background(), 404, dto.SectionCreateRequest{Title: "Intro"}, Requester{ID: 9, Role: models.RoleInstructor})
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestSectionListVisibility(t *testing.T) {
	sections, enrollments, svc := sectionFixture(t)

	require.NoError(t, sections.Create(context.Background(), &models.Section{CourseID: 1, Title: "Intro", OrderIndex: 1}))

	// Enrollment gates content for students even on a published course.
	_, err := svc.ListByCourse(context.Background(), 1, Requester{ID: 1, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, enrollments.Create(context.Background(), &models.Enrollment{UserID: 1, CourseID: 1, EnrolledAt: time.Now()}))

	listed, err := svc.ListByCourse(context.Background(), 1, Requester{ID: 1, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Len(t, listed, 1)

	// The owner sees sections on a draft course without enrollment.
	_, err = svc.ListByCourse(context.Background(), 2, Requester{ID: 9, Role: models.RoleInstructor})
	require.NoError(t, err)
}

func TestSectionUpdateRename(t *testing.T) {
	sections, _, svc := sectionFixture(t)

	require.NoError(t, sections.Create(context.Background(), &models.Section{CourseID: 1, Title: "Intro", OrderIndex: 1}))
	require.NoError(t, sections.Create(context.Background(), &models.Section{CourseID: 2, Title: "Elsewhere", OrderIndex: 1}))

	title := "Getting Started"
	updated, err := svc.Update(context.Background(), 1, 1, dto.SectionUpdateRequest{Title: &title}, Requester{ID: 9, Role: models.RoleInstructor})
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, 1, updated.OrderIndex)

	// A section belonging to another course is invisible through this course.
	_, err = svc.Update(context.Background(), 1, 2, dto.SectionUpdateRequest{Title: &title}, Requester{ID: 9, Role: models.RoleInstructor})
	require.ErrorIs(t, err, ErrSectionNotFound)
}

func TestSectionDeleteResequences(t *testing.T) {
	sections, _, svc := sectionFixture(t)

	require.NoError(t, sections.Create(context.Background(), &models.Section{CourseID: 1, Title: "One", OrderIndex: 1}))
	require.NoError(t, sections.Create(context.Background(), &models.Section{CourseID: 1, Title: "Two", OrderIndex: 2}))
	require.NoError(t, sections.Create(context.Background(), &models.Section{CourseID: 1, Title: "Three", OrderIndex: 3}))

	require.NoError(t, svc.Delete(context.Background(), 1, 2, Requester{ID: 9, Role: models.RoleInstructor}))

	remaining, err := sections.ListByCourse(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	require.Equal(t, "One", remaining[0].Title)
	require.Equal(t, 1, remaining[0].OrderIndex)
	require.Equal(t, "Three", remaining[1].Title)
	require.Equal(t, 2, remaining[1].OrderIndex)

	err = svc.Delete(context.Background(), 1, 2, Requester{ID: 9, Role: models.RoleInstructor})
	require.ErrorIs(t, err, ErrSectionNotFound)
}
