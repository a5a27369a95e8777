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
	"github.com/rs/zerolog"

	"github.com/skolahub/skola-api/internal/config"
	"github.com/skolahub/skola-api/internal/database"
	"github.com/skolahub/skola-api/internal/handler"
	"github.com/skolahub/skola-api/internal/middleware"
	"github.com/skolahub/skola-api/internal/models"
	"github.com/skolahub/skola-api/internal/repository"
	"github.com/skolahub/skola-api/internal/router"
	"github.com/skolahub/skola-api/internal/service"
	"github.com/skolahub/skola-api/pkg/storage"
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
		&models.Student{},
		&models.Class{},
		&models.Subject{},
		&models.Enrollment{},
		&models.Assignment{},
		&models.Submission{},
		&models.Announcement{},
		&models.Event{},
		&models.Resource{},
		&models.ContentPage{},
		&models.ContentVersion{},
		&models.Notification{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	uploader, err := storage.NewCloudinary(storage.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	eventRepo := repository.NewEventRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	contentRepo := repository.NewContentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, "skola", natsConn, logger)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, validate, logger)
	studentService := service.NewStudentService(studentRepo, validate, activityService, logger)
	classService := service.NewClassService(classRepo, validate, activityService, logger)
	subjectService := service.NewSubjectService(subjectRepo, validate, activityService, logger)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, classRepo, studentRepo, validate, activityService, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, enrollmentRepo, validate, activityService, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, validate, activityService, notificationService, logger)
	announcementService := service.NewAnnouncementService(announcementRepo, redisClient, cfg.AnnouncementCacheTTL, validate, activityService, logger)
	eventService := service.NewEventService(eventRepo, validate, activityService, logger)
	resourceService := service.NewResourceService(uploader, resourceRepo, cfg.UploadMaxSizeMB, validate, activityService, logger)
	contentService := service.NewContentService(contentRepo, validate, activityService, logger)
	analyticsService := service.NewAnalyticsService(analyticsRepo, redisClient, cfg.AnalyticsCacheTTL, logger)
	dataProtectionService := service.NewDataProtectionService(studentRepo, enrollmentRepo, submissionRepo, notificationRepo, activityRepo, activityService, logger)

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()
	notificationService.Start(appCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:           handler.NewAuthHandler(authService, logger),
		StudentHandler:        handler.NewStudentHandler(studentService, logger),
		ClassHandler:          handler.NewClassHandler(classService, enrollmentService, logger),
		SubjectHandler:        handler.NewSubjectHandler(subjectService, logger),
		AssignmentHandler:     handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler:     handler.NewSubmissionHandler(submissionService, studentService, logger),
		AnnouncementHandler:   handler.NewAnnouncementHandler(announcementService, logger),
		EventHandler:          handler.NewEventHandler(eventService, logger),
		ResourceHandler:       handler.NewResourceHandler(resourceService, logger),
		ContentHandler:        handler.NewContentHandler(contentService, logger),
		NotificationHandler:   handler.NewNotificationHandler(notificationService, logger, 30*time.Second),
		AnalyticsHandler:      handler.NewAnalyticsHandler(analyticsService, logger),
		ActivityHandler:       handler.NewActivityHandler(activityService, logger),
		DataProtectionHandler: handler.NewDataProtectionHandler(dataProtectionService, logger),
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cancelApp)
}

func waitForShutdown(app *fiber.App, cancelApp context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	cancelApp()
	log.Println("server stopped")
}
