package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/config"
	"github.com/luminalms/lumina-api/internal/handler"
	"github.com/luminalms/lumina-api/internal/middleware"
	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/repository"
	"github.com/luminalms/lumina-api/internal/router"
	"github.com/luminalms/lumina-api/internal/service"
)

const testJWTSecret = "handler-test-secret"

type testUploader struct{}

func (t *testUploader) Upload(_ context.Context, name string, _ io.Reader) (string, error) {
	return "https://cdn.example.com/" + name, nil
}

// setupApp wires the full HTTP stack against an isolated in-memory database.
func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Section{},
		&models.Lesson{},
		&models.CourseMaterial{},
		&models.Enrollment{},
		&models.LessonProgress{},
		&models.Assignment{},
		&models.Submission{},
	))

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)
	uploader := &testUploader{}
	events := service.NewEventPublisher(nil, "test", logger)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	progressRepo := repository.NewLessonProgressRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	authService := service.NewAuthService(userRepo, service.TokenConfig{
		Secret:        testJWTSecret,
		RefreshSecret: "handler-test-refresh",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
	}, validate, logger)
	courseService := service.NewCourseService(courseRepo, nil, 0, events, validate, logger)
	sectionService := service.NewSectionService(sectionRepo, courseRepo, enrollmentRepo, validate, logger)
	progressService := service.NewProgressService(enrollmentRepo, progressRepo, lessonRepo, courseRepo, logger)
	lessonService := service.NewLessonService(lessonRepo, sectionRepo, courseRepo, enrollmentRepo, progressService, validate, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, events, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, enrollmentRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, courseRepo, enrollmentRepo, events, uploader, validate, logger)
	materialService := service.NewMaterialService(materialRepo, courseRepo, enrollmentRepo, uploader, logger)
	adminUserService := service.NewAdminUserService(userRepo, validate, logger)

	app := fiber.New()

	router.Register(app, config.Config{AppName: "Lumina Test", AppEnv: "test", JWTSecret: testJWTSecret}, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, validate, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, validate, logger),
		SectionHandler:    handler.NewSectionHandler(sectionService, validate, logger),
		LessonHandler:     handler.NewLessonHandler(lessonService, progressService, validate, logger),
		EnrollmentHandler: handler.NewEnrollmentHandler(enrollmentService, progressService, validate, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, submissionService, validate, logger),
		MaterialHandler:   handler.NewMaterialHandler(materialService, validate, logger),
		AdminUserHandler:  handler.NewAdminUserHandler(adminUserService, validate, logger),
		JWTMiddleware:     middleware.JWTProtected(testJWTSecret),
		JWTOptional:       middleware.JWTOptional(testJWTSecret),
		DB:                db,
	})

	return app, db
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func decodeData(t *testing.T, resp *http.Response, target interface{}) envelope {
	t.Helper()

	env := decodeEnvelope(t, resp)
	if len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, target))
	}
	return env
}

// registerUser creates an account through the API and returns its access
// token together with the user id.
func registerUser(t *testing.T, app *fiber.App, email, role string) (string, uint) {
	t.Helper()

	resp := doJSON(t, app, "POST", "/api/v1/auth/register", "", map[string]string{
		"email":      email,
		"password":   "secret-password",
		"first_name": "Test",
		"last_name":  "User",
		"role":       role,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var auth struct {
		User struct {
			ID uint `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	decodeData(t, resp, &auth)
	require.NotEmpty(t, auth.Token)
	return auth.Token, auth.User.ID
}

// loginUser exchanges credentials for a fresh token, picking up role changes
// applied after registration.
func loginUser(t *testing.T, app *fiber.App, email string) string {
	t.Helper()

	resp := doJSON(t, app, "POST", "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "secret-password",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var auth struct {
		Token string `json:"token"`
	}
	decodeData(t, resp, &auth)
	return auth.Token
}
