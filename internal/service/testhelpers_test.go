package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type recordingEvents struct {
	published []string
}

func (r *recordingEvents) Publish(event string, _ interface{}) {
	r.published = append(r.published, event)
}

type stubUploader struct {
	uploads int
}

func (s *stubUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	s.uploads++
	return "https://cdn.example.com/" + name, nil
}

type memoryUserRepo struct {
	users  map[uint]models.User
	nextID uint
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uint]models.User), nextID: 1}
}

func (m *memoryUserRepo) List(_ context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	filtered := make([]models.User, 0, len(m.users))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, user := range m.users {
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(user.Email), search) {
			continue
		}
		filtered = append(filtered, user)
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })

	total := int64(len(filtered))
	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start >= len(filtered) {
			return []models.User{}, total, nil
		}
		end := start + filter.PageSize
		if end > len(filtered) {
			end = len(filtered)
		}
		filtered = filtered[start:end]
	}

	return filtered, total, nil
}

func (m *memoryUserRepo) GetByID(_ context.Context, id uint) (models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memoryUserRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (m *memoryUserRepo) Create(_ context.Context, user *models.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.users[m.nextID] = *user
	m.nextID++
	return nil
}

func (m *memoryUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	user.UpdatedAt = time.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *memoryUserRepo) DeleteCascade(_ context.Context, id uint) error {
	if _, ok := m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	return nil
}

type memoryCourseRepo struct {
	courses map[uint]models.Course
	lessons *memoryLessonRepo
	nextID  uint
}

func newMemoryCourseRepo() *memoryCourseRepo {
	return &memoryCourseRepo{courses: make(map[uint]models.Course), nextID: 1}
}

func (m *memoryCourseRepo) List(_ context.Context, filter repository.CourseFilter) ([]models.Course, int64, error) {
	filtered := make([]models.Course, 0, len(m.courses))
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, course := range m.courses {
		if filter.PublishedOnly && !course.IsPublished {
			continue
		}
		if filter.InstructorID != nil && course.InstructorID != *filter.InstructorID {
			continue
		}
		if filter.Category != "" && course.Category != filter.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(course.Title), search) {
			continue
		}
		filtered = append(filtered, course)
	}

	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })

	total := int64(len(filtered))
	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start >= len(filtered) {
			return []models.Course{}, total, nil
		}
		end := start + filter.PageSize
		if end > len(filtered) {
			end = len(filtered)
		}
		filtered = filtered[start:end]
	}

	return filtered, total, nil
}

func (m *memoryCourseRepo) GetByID(_ context.Context, id uint) (models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (m *memoryCourseRepo) Create(_ context.Context, course *models.Course) error {
	course.ID = m.nextID
	course.CreatedAt = time.Now()
	course.UpdatedAt = time.Now()
	m.courses[m.nextID] = *course
	m.nextID++
	return nil
}

func (m *memoryCourseRepo) Update(_ context.Context, course *models.Course) error {
	if _, ok := m.courses[course.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	course.UpdatedAt = time.Now()
	m.courses[course.ID] = *course
	return nil
}

func (m *memoryCourseRepo) DeleteCascade(_ context.Context, id uint) error {
	if _, ok := m.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.courses, id)
	return nil
}

func (m *memoryCourseRepo) CountLessons(_ context.Context, courseID uint) (int64, error) {
	if m.lessons == nil {
		return 0, nil
	}
	var total int64
	for _, lesson := range m.lessons.lessons {
		if lesson.CourseID == courseID {
			total++
		}
	}
	return total, nil
}

type memorySectionRepo struct {
	sections map[uint]models.Section
	nextID   uint
}

func newMemorySectionRepo() *memorySectionRepo {
	return &memorySectionRepo{sections: make(map[uint]models.Section), nextID: 1}
}

func (m *memorySectionRepo) ListByCourse(_ context.Context, courseID uint) ([]models.Section, error) {
	result := make([]models.Section, 0)
	for _, section := range m.sections {
		if section.CourseID == courseID {
			result = append(result, section)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OrderIndex < result[j].OrderIndex })
	return result, nil
}

func (m *memorySectionRepo) GetByID(_ context.Context, id uint) (models.Section, error) {
	section, ok := m.sections[id]
	if !ok {
		return models.Section{}, gorm.ErrRecordNotFound
	}
	return section, nil
}

func (m *memorySectionRepo) MaxOrderIndex(_ context.Context, courseID uint) (int, error) {
	max := 0
	for _, section := range m.sections {
		if section.CourseID == courseID && section.OrderIndex > max {
			max = section.OrderIndex
		}
	}
	return max, nil
}

func (m *memorySectionRepo) Create(_ context.Context, section *models.Section) error {
	section.ID = m.nextID
	m.sections[m.nextID] = *section
	m.nextID++
	return nil
}

func (m *memorySectionRepo) Update(_ context.Context, section *models.Section) error {
	if _, ok := m.sections[section.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.sections[section.ID] = *section
	return nil
}

func (m *memorySectionRepo) DeleteCascade(_ context.Context, id uint) error {
	if _, ok := m.sections[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.sections, id)
	return nil
}

func (m *memorySectionRepo) Resequence(_ context.Context, courseID uint) error {
	result := make([]models.Section, 0)
	for _, section := range m.sections {
		if section.CourseID == courseID {
			result = append(result, section)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].OrderIndex < result[j].OrderIndex })
	for i, section := range result {
		section.OrderIndex = i + 1
		m.sections[section.ID] = section
	}
	return nil
}

type memoryLessonRepo struct {
	lessons map[uint]models.Lesson
	nextID  uint
}

func newMemoryLessonRepo() *memoryLessonRepo {
	return &memoryLessonRepo{lessons: make(map[uint]models.Lesson), nextID: 1}
}

func (m *memoryLessonRepo) ListByCourse(_ context.Context, courseID uint) ([]models.Lesson, error) {
	result := make([]models.Lesson, 0)
	for _, lesson := range m.lessons {
		if lesson.CourseID == courseID {
			result = append(result, lesson)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SectionID != result[j].SectionID {
			return result[i].SectionID < result[j].SectionID
		}
		return result[i].Order < result[j].Order
	})
	return result, nil
}

func (m *memoryLessonRepo) GetByID(_ context.Context, id uint) (models.Lesson, error) {
	lesson, ok := m.lessons[id]
	if !ok {
		return models.Lesson{}, gorm.ErrRecordNotFound
	}
	return lesson, nil
}

func (m *memoryLessonRepo) MaxOrder(_ context.Context, sectionID uint) (int, error) {
	max := 0
	for _, lesson := range m.lessons {
		if lesson.SectionID == sectionID && lesson.Order > max {
			max = lesson.Order
		}
	}
	return max, nil
}

func (m *memoryLessonRepo) Create(_ context.Context, lesson *models.Lesson) error {
	lesson.ID = m.nextID
	m.lessons[m.nextID] = *lesson
	m.nextID++
	return nil
}

func (m *memoryLessonRepo) Update(_ context.Context, lesson *models.Lesson) error {
	if _, ok := m.lessons[lesson.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.lessons[lesson.ID] = *lesson
	return nil
}

func (m *memoryLessonRepo) DeleteCascade(_ context.Context, id uint) error {
	if _, ok := m.lessons[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.lessons, id)
	return nil
}

func (m *memoryLessonRepo) Resequence(_ context.Context, sectionID uint) error {
	result := make([]models.Lesson, 0)
	for _, lesson := range m.lessons {
		if lesson.SectionID == sectionID {
			result = append(result, lesson)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Order < result[j].Order })
	for i, lesson := range result {
		lesson.Order = i + 1
		m.lessons[lesson.ID] = lesson
	}
	return nil
}

type memoryEnrollmentRepo struct {
	enrollments map[uint]models.Enrollment
	nextID      uint
}

func newMemoryEnrollmentRepo() *memoryEnrollmentRepo {
	return &memoryEnrollmentRepo{enrollments: make(map[uint]models.Enrollment), nextID: 1}
}

func (m *memoryEnrollmentRepo) ListByUser(_ context.Context, userID uint) ([]models.Enrollment, error) {
	result := make([]models.Enrollment, 0)
	for _, enrollment := range m.enrollments {
		if enrollment.UserID == userID {
			result = append(result, enrollment)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EnrolledAt.After(result[j].EnrolledAt) })
	return result, nil
}

func (m *memoryEnrollmentRepo) GetByID(_ context.Context, id uint) (models.Enrollment, error) {
	enrollment, ok := m.enrollments[id]
	if !ok {
		return models.Enrollment{}, gorm.ErrRecordNotFound
	}
	return enrollment, nil
}

func (m *memoryEnrollmentRepo) GetByUserAndCourse(_ context.Context, userID, courseID uint) (models.Enrollment, error) {
	for _, enrollment := range m.enrollments {
		if enrollment.UserID == userID && enrollment.CourseID == courseID {
			return enrollment, nil
		}
	}
	return models.Enrollment{}, gorm.ErrRecordNotFound
}

func (m *memoryEnrollmentRepo) Create(_ context.Context, enrollment *models.Enrollment) error {
	for _, existing := range m.enrollments {
		if existing.UserID == enrollment.UserID && existing.CourseID == enrollment.CourseID {
			return gorm.ErrDuplicatedKey
		}
	}
	enrollment.ID = m.nextID
	m.enrollments[m.nextID] = *enrollment
	m.nextID++
	return nil
}

func (m *memoryEnrollmentRepo) Update(_ context.Context, enrollment *models.Enrollment) error {
	if _, ok := m.enrollments[enrollment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *memoryEnrollmentRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.enrollments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.enrollments, id)
	return nil
}

type progressKey struct {
	userID   uint
	lessonID uint
}

type memoryProgressRepo struct {
	rows   map[progressKey]models.LessonProgress
	nextID uint
}

func newMemoryProgressRepo() *memoryProgressRepo {
	return &memoryProgressRepo{rows: make(map[progressKey]models.LessonProgress), nextID: 1}
}

func (m *memoryProgressRepo) ListByUserAndCourse(_ context.Context, userID, courseID uint) ([]models.LessonProgress, error) {
	result := make([]models.LessonProgress, 0)
	for _, row := range m.rows {
		if row.UserID == userID && row.CourseID == courseID {
			result = append(result, row)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LessonID < result[j].LessonID })
	return result, nil
}

func (m *memoryProgressRepo) CountCompleted(_ context.Context, userID, courseID uint) (int64, error) {
	var total int64
	for _, row := range m.rows {
		if row.UserID == userID && row.CourseID == courseID && row.Completed {
			total++
		}
	}
	return total, nil
}

func (m *memoryProgressRepo) UpsertViewed(_ context.Context, progress *models.LessonProgress) error {
	key := progressKey{userID: progress.UserID, lessonID: progress.LessonID}
	if existing, ok := m.rows[key]; ok {
		*progress = existing
		return nil
	}
	progress.ID = m.nextID
	m.rows[key] = *progress
	m.nextID++
	return nil
}

func (m *memoryProgressRepo) UpsertCompleted(_ context.Context, progress *models.LessonProgress) error {
	key := progressKey{userID: progress.UserID, lessonID: progress.LessonID}
	if existing, ok := m.rows[key]; ok {
		if existing.Completed {
			*progress = existing
			return nil
		}
		existing.Completed = true
		existing.CompletedAt = progress.CompletedAt
		m.rows[key] = existing
		*progress = existing
		return nil
	}
	progress.ID = m.nextID
	progress.Completed = true
	m.rows[key] = *progress
	m.nextID++
	return nil
}

type memoryAssignmentRepo struct {
	assignments map[uint]models.Assignment
	nextID      uint
}

func newMemoryAssignmentRepo() *memoryAssignmentRepo {
	return &memoryAssignmentRepo{assignments: make(map[uint]models.Assignment), nextID: 1}
}

func (m *memoryAssignmentRepo) ListByCourse(_ context.Context, courseID uint) ([]models.Assignment, error) {
	result := make([]models.Assignment, 0)
	for _, assignment := range m.assignments {
		if assignment.CourseID == courseID {
			result = append(result, assignment)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DueDate.Before(result[j].DueDate) })
	return result, nil
}

func (m *memoryAssignmentRepo) GetByID(_ context.Context, id uint) (models.Assignment, error) {
	assignment, ok := m.assignments[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (m *memoryAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	assignment.ID = m.nextID
	m.assignments[m.nextID] = *assignment
	m.nextID++
	return nil
}

func (m *memoryAssignmentRepo) Update(_ context.Context, assignment *models.Assignment) error {
	if _, ok := m.assignments[assignment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.assignments[assignment.ID] = *assignment
	return nil
}

func (m *memoryAssignmentRepo) DeleteCascade(_ context.Context, id uint) error {
	if _, ok := m.assignments[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.assignments, id)
	return nil
}

type memorySubmissionRepo struct {
	submissions map[uint]models.Submission
	nextID      uint
}

func newMemorySubmissionRepo() *memorySubmissionRepo {
	return &memorySubmissionRepo{submissions: make(map[uint]models.Submission), nextID: 1}
}

func (m *memorySubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	result := make([]models.Submission, 0)
	for _, submission := range m.submissions {
		if filter.AssignmentID != nil && submission.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.UserID != nil && submission.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		result = append(result, submission)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memorySubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	submission, ok := m.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (m *memorySubmissionRepo) GetByAssignmentAndUser(_ context.Context, assignmentID, userID uint) (models.Submission, error) {
	for _, submission := range m.submissions {
		if submission.AssignmentID == assignmentID && submission.UserID == userID {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (m *memorySubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	for _, existing := range m.submissions {
		if existing.AssignmentID == submission.AssignmentID && existing.UserID == submission.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	submission.ID = m.nextID
	submission.CreatedAt = time.Now()
	submission.UpdatedAt = time.Now()
	m.submissions[m.nextID] = *submission
	m.nextID++
	return nil
}

func (m *memorySubmissionRepo) Update(_ context.Context, submission *models.Submission) error {
	if _, ok := m.submissions[submission.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	submission.UpdatedAt = time.Now()
	m.submissions[submission.ID] = *submission
	return nil
}

type memoryMaterialRepo struct {
	materials map[uint]models.CourseMaterial
	nextID    uint
}

func newMemoryMaterialRepo() *memoryMaterialRepo {
	return &memoryMaterialRepo{materials: make(map[uint]models.CourseMaterial), nextID: 1}
}

func (m *memoryMaterialRepo) ListByCourse(_ context.Context, courseID uint) ([]models.CourseMaterial, error) {
	result := make([]models.CourseMaterial, 0)
	for _, material := range m.materials {
		if material.CourseID == courseID {
			result = append(result, material)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memoryMaterialRepo) GetByID(_ context.Context, id uint) (models.CourseMaterial, error) {
	material, ok := m.materials[id]
	if !ok {
		return models.CourseMaterial{}, gorm.ErrRecordNotFound
	}
	return material, nil
}

func (m *memoryMaterialRepo) Create(_ context.Context, material *models.CourseMaterial) error {
	material.ID = m.nextID
	m.materials[m.nextID] = *material
	m.nextID++
	return nil
}

func (m *memoryMaterialRepo) Delete(_ context.Context, id uint) error {
	if _, ok := m.materials[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.materials, id)
	return nil
}
