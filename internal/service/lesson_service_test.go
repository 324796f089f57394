package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/luminalms/lumina-api/internal/dto"
	"github.com/luminalms/lumina-api/internal/models"
)

func lessonFixture(t *testing.T) (*memoryLessonRepo, *memoryProgressRepo, *memoryEnrollmentRepo, LessonService) {
	t.Helper()

	lessons := newMemoryLessonRepo()
	sections := newMemorySectionRepo()
	courses := newMemoryCourseRepo()
	courses.lessons = lessons
	enrollments := newMemoryEnrollmentRepo()
	progressRepo := newMemoryProgressRepo()
	validate := validator.New(validator.WithRequiredStructEnabled())

	require.NoError(t, courses.Create(context.Background(), &models.Course{Title: "Go Basics", InstructorID: 9, IsPublished: true}))
	require.NoError(t, courses.Create(context.Background(), &models.Course{Title: "Other", InstructorID: 9, IsPublished: true}))
	require.NoError(t, sections.Create(context.Background(), &models.Section{CourseID: 1, Title: "Intro", OrderIndex: 1}))
	require.NoError(t, sections.Create(context.Background(), &models.Section{CourseID: 2, Title: "Elsewhere", OrderIndex: 1}))

	progress := NewProgressService(enrollments, progressRepo, lessons, courses, testLogger())
	svc := NewLessonService(lessons, sections, courses, enrollments, progress, validate, testLogger())
	return lessons, progressRepo, enrollments, svc
}

func textBlocks(body string) json.RawMessage {
	blocks := []map[string]interface{}{{"type": "text", "body": body}}
	raw, _ := json.Marshal(blocks)
	return raw
}

func TestLessonCreateAppendsOrder(t *testing.T) {
	_, _, _, svc := lessonFixture(t)

	owner := Requester{ID: 9, Role: models.RoleInstructor}

	first, err := svc.Create(context.Background(), 1, dto.LessonCreateRequest{
		SectionID: 1,
		Title:     "Hello",
		Content:   textBlocks("Welcome"),
	}, owner)
	require.NoError(t, err)
	require.Equal(t, 1, first.Order)

	second, err := svc.Create(context.Background(), 1, dto.LessonCreateRequest{
		SectionID: 1,
		Title:     "Variables",
		Content:   textBlocks("var x int"),
	}, owner)
	require.NoError(t, err)
	require.Equal(t, 2, second.Order)
}

func TestLessonCreateRejectsForeignSection(t *testing.T) {
	_, _, _, svc := lessonFixture(t)

	// Section 2 belongs to course 2, not course 1.
	_, err := svc.Create(context.Background(), 1, dto.LessonCreateRequest{
		SectionID: 2,
		Title:     "Misplaced",
		Content:   textBlocks("x"),
	}, Requester{ID: 9, Role: models.RoleInstructor})
	require.ErrorIs(t, err, ErrSectionNotFound)

	_, err = svc.Create(context.Background(), 1, dto.LessonCreateRequest{
		SectionID: 404,
		Title:     "Missing",
		Content:   textBlocks("x"),
	}, Requester{ID: 9, Role: models.RoleInstructor})
	require.ErrorIs(t, err, ErrSectionNotFound)
}

func TestLessonCreateValidatesContent(t *testing.T) {
	_, _, _, svc := lessonFixture(t)

	owner := Requester{ID: 9, Role: models.RoleInstructor}

	cases := []json.RawMessage{
		json.RawMessage(`{"type":"text","body":"not an array"}`),
		json.RawMessage(`[{"type":"hologram"}]`),
		json.RawMessage(`[{"body":"missing type"}]`),
		json.RawMessage(`not json at all`),
	}
	for _, content := range cases {
		_, err := svc.Create(context.Background(), 1, dto.LessonCreateRequest{
			SectionID: 1,
			Title:     "Bad",
			Content:   content,
		}, owner)
		require.ErrorIs(t, err, ErrInvalidContent)
	}
}

func TestLessonContentBodySanitized(t *testing.T) {
	_, _, _, svc := lessonFixture(t)

	created, err := svc.Create(context.Background(), 1, dto.LessonCreateRequest{
		SectionID: 1,
		Title:     "Hello",
		Content:   textBlocks(`Safe <b>bold</b><script>alert("x")</script>`),
	}, Requester{ID: 9, Role: models.RoleInstructor})
	require.NoError(t, err)

	var blocks []map[string]interface{}
	require.NoError(t, json.Unmarshal(created.Content, &blocks))
	require.Len(t, blocks, 1)
	body, _ := blocks[0]["body"].(string)
	require.Contains(t, body, "<b>bold</b>")
	require.NotContains(t, body, "script")
}

func TestLessonGetRecordsStudentView(t *testing.T) {
	_, progressRepo, enrollments, svc := lessonFixture(t)

	created, err := svc.Create(context.Background(), 1, dto.LessonCreateRequest{
		SectionID: 1,
		Title:     "Hello",
		Content:   textBlocks("Welcome"),
	}, Requester{ID: 9, Role: models.RoleInstructor})
	require.NoError(t, err)

	require.NoError(t, enrollments.Create(context.Background(), &models.Enrollment{UserID: 1, CourseID: 1, EnrolledAt: time.Now()}))

	fetched, err := svc.Get(context.Background(), 1, created.ID, Requester{ID: 1, Role: models.RoleStudent})
	require.NoError(t, err)
	require.NotEmpty(t, fetched.Content)

	rows, err := progressRepo.ListByUserAndCourse(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.False(t, rows[0].Completed)

	// The owner reading their own lesson leaves no progress trail.
	_, err = svc.Get(context.Background(), 1, created.ID, Requester{ID: 9, Role: models.RoleInstructor})
	require.NoError(t, err)

	rows, err = progressRepo.ListByUserAndCourse(context.Background(), 9, 1)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestLessonAccessRequiresEnrollment(t *testing.T) {
	_, _, _, svc := lessonFixture(t)

	created, err := svc.Create(context.Background(), 1, dto.LessonCreateRequest{
		SectionID: 1,
		Title:     "Hello",
		Content:   textBlocks("Welcome"),
	}, Requester{ID: 9, Role: models.RoleInstructor})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 1, created.ID, Requester{ID: 1, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ListByCourse(context.Background(), 1, Requester{ID: 1, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ListByCourse(context.Background(), 1, Requester{})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestLessonGetRejectsForeignCourse(t *testing.T) {
	_, _, _, svc := lessonFixture(t)

	created, err := svc.Create(context.Background(), 2, dto.LessonCreateRequest{
		SectionID: 2,
		Title:     "Elsewhere",
		Content:   textBlocks("x"),
	}, Requester{ID: 9, Role: models.RoleInstructor})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 1, created.ID, Requester{ID: 9, Role: models.RoleInstructor})
	require.ErrorIs(t, err, ErrLessonNotFound)
}

func TestLessonUpdate(t *testing.T) {
	_, _, _, svc := lessonFixture(t)

	owner := Requester{ID: 9, Role: models.RoleInstructor}

	created, err := svc.Create(context.Background(), 1, dto.LessonCreateRequest{
		SectionID: 1,
		Title:     "Hello",
		Content:   textBlocks("Welcome"),
	}, owner)
	require.NoError(t, err)

	title := "Hello, Go"
	updated, err := svc.Update(context.Background(), 1, created.ID, dto.LessonUpdateRequest{Title: &title}, owner)
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.JSONEq(t, string(created.Content), string(updated.Content))

	_, err = svc.Update(context.Background(), 1, created.ID, dto.LessonUpdateRequest{
		Content: json.RawMessage(`[{"type":"bogus"}]`),
	}, owner)
	require.ErrorIs(t, err, ErrInvalidContent)

	_, err = svc.Update(context.Background(), 1, created.ID, dto.LessonUpdateRequest{Title: &title}, Requester{ID: 5, Role: models.RoleInstructor})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestLessonDeleteResequencesSiblings(t *testing.T) {
	lessons, _, _, svc := lessonFixture(t)

	owner := Requester{ID: 9, Role: models.RoleInstructor}

	for _, title := range []string{"One", "Two", "Three"} {
		_, err := svc.Create(context.Background(), 1, dto.LessonCreateRequest{
			SectionID: 1,
			Title:     title,
			Content:   textBlocks(title),
		}, owner)
		require.NoError(t, err)
	}

	require.NoError(t, svc.Delete(context.Background(), 1, 2, owner))

	remaining, err := lessons.ListByCourse(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	require.Equal(t, "One", remaining[0].Title)
	require.Equal(t, 1, remaining[0].Order)
	require.Equal(t, "Three", remaining[1].Title)
	require.Equal(t, 2, remaining[1].Order)

	err = svc.Delete(context.Background(), 1, 2, owner)
	require.ErrorIs(t, err, ErrLessonNotFound)
}
