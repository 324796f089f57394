package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/luminalms/lumina-api/internal/config"
	"github.com/luminalms/lumina-api/internal/database"
	"github.com/luminalms/lumina-api/internal/handler"
	"github.com/luminalms/lumina-api/internal/middleware"
	"github.com/luminalms/lumina-api/internal/models"
	"github.com/luminalms/lumina-api/internal/repository"
	"github.com/luminalms/lumina-api/internal/router"
	"github.com/luminalms/lumina-api/internal/service"
	cloud "github.com/luminalms/lumina-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.Section{},
		&models.Lesson{},
		&models.CourseMaterial{},
		&models.Enrollment{},
		&models.LessonProgress{},
		&models.Assignment{},
		&models.Submission{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured, catalog caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSUrl != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSUrl)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	} else {
		logger.Warn().Msg("nats not configured, domain events disabled")
	}

	var uploadService service.FileUploader
	if cfg.CloudinaryCloudName != "" {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploadService = uploader
	} else {
		logger.Warn().Msg("cloudinary not configured, file uploads disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	events := service.NewEventPublisher(natsConn, cfg.EventSubjectBase, logger)

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
		Secret:        cfg.JWTSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
	}, validate, logger)
	courseService := service.NewCourseService(courseRepo, redisClient, cfg.CatalogCacheTTL, events, validate, logger)
	sectionService := service.NewSectionService(sectionRepo, courseRepo, enrollmentRepo, validate, logger)
	progressService := service.NewProgressService(enrollmentRepo, progressRepo, lessonRepo, courseRepo, logger)
	lessonService := service.NewLessonService(lessonRepo, sectionRepo, courseRepo, enrollmentRepo, progressService, validate, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, events, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, enrollmentRepo, validate, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, courseRepo, enrollmentRepo, events, uploadService, validate, logger)
	materialService := service.NewMaterialService(materialRepo, courseRepo, enrollmentRepo, uploadService, logger)
	adminUserService := service.NewAdminUserService(userRepo, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, validate, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, validate, logger),
		SectionHandler:    handler.NewSectionHandler(sectionService, validate, logger),
		LessonHandler:     handler.NewLessonHandler(lessonService, progressService, validate, logger),
		EnrollmentHandler: handler.NewEnrollmentHandler(enrollmentService, progressService, validate, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, submissionService, validate, logger),
		MaterialHandler:   handler.NewMaterialHandler(materialService, validate, logger),
		AdminUserHandler:  handler.NewAdminUserHandler(adminUserService, validate, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		JWTOptional:       middleware.JWTOptional(cfg.JWTSecret),
		DB:                db,
		Cache:             redisClient,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
