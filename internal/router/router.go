package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/luminalms/lumina-api/internal/config"
	"github.com/luminalms/lumina-api/internal/handler"
	"github.com/luminalms/lumina-api/internal/middleware"
	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	CourseHandler     *handler.CourseHandler
	SectionHandler    *handler.SectionHandler
	LessonHandler     *handler.LessonHandler
	EnrollmentHandler *handler.EnrollmentHandler
	AssignmentHandler *handler.AssignmentHandler
	MaterialHandler   *handler.MaterialHandler
	AdminUserHandler  *handler.AdminUserHandler
	JWTMiddleware     fiber.Handler
	JWTOptional       fiber.Handler
	DB                *gorm.DB
	Cache             *redis.Client
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/health/db", handler.DependencyHealthCheck(deps.DB, deps.Cache))

	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}
	jwtOptional := deps.JWTOptional
	if jwtOptional == nil {
		jwtOptional = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Auth: credential endpoints are rate limited per client.
	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", 20, time.Minute))
		deps.AuthHandler.Register(auth)

		protected := api.Group("/auth", jwtMiddleware)
		deps.AuthHandler.RegisterProtected(protected)
	}

	// Courses: catalog reads accept anonymous traffic, authoring requires a token.
	if deps.CourseHandler != nil {
		catalog := api.Group("/courses", jwtOptional)
		deps.CourseHandler.Register(catalog)

		authoring := api.Group("/courses", jwtMiddleware)
		deps.CourseHandler.RegisterProtected(authoring)

		if deps.SectionHandler != nil {
			sections := api.Group("/courses/:courseId/sections", jwtMiddleware)
			deps.SectionHandler.Register(sections)
		}

		if deps.LessonHandler != nil {
			lessons := api.Group("/courses/:courseId/lessons", jwtMiddleware)
			deps.LessonHandler.Register(lessons)
		}

		if deps.MaterialHandler != nil {
			materials := api.Group("/courses/:courseId/materials", jwtMiddleware)
			deps.MaterialHandler.Register(materials)
		}

		if deps.AssignmentHandler != nil {
			courseAssignments := api.Group("/courses/:courseId/assignments", jwtMiddleware)
			deps.AssignmentHandler.RegisterCourseScoped(courseAssignments)
		}
	}

	// Assignments & submissions
	if deps.AssignmentHandler != nil {
		assignments := api.Group("/assignments", jwtMiddleware)
		deps.AssignmentHandler.Register(assignments)
	}

	// Enrollments & progress
	if deps.EnrollmentHandler != nil {
		enrollments := api.Group("/enrollments", jwtMiddleware)
		deps.EnrollmentHandler.Register(enrollments)
	}

	// Admin
	if deps.AdminUserHandler != nil {
		admin := api.Group("/admin/users", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
		deps.AdminUserHandler.Register(admin)
	}
}
