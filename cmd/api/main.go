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
	"github.com/rs/zerolog"

	"github.com/tallyrus/pergi-api/internal/config"
	"github.com/tallyrus/pergi-api/internal/database"
	"github.com/tallyrus/pergi-api/internal/handler"
	"github.com/tallyrus/pergi-api/internal/middleware"
	"github.com/tallyrus/pergi-api/internal/models"
	"github.com/tallyrus/pergi-api/internal/repository"
	"github.com/tallyrus/pergi-api/internal/router"
	"github.com/tallyrus/pergi-api/internal/service"
	"github.com/tallyrus/pergi-api/pkg/ai"
	cloud "github.com/tallyrus/pergi-api/pkg/cloudinary"
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

	if err := db.AutoMigrate(&models.Template{}, &models.Classroom{}, &models.Assignment{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	aiClient, err := ai.New(ai.Config{
		APIKey:      cfg.OpenAIAPIKey,
		ChatModel:   cfg.OpenAIChatModel,
		GraderModel: cfg.OpenAIGraderModel,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("failed to create openai client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	templateRepo := repository.NewTemplateRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	notifier := service.NewEventNotifier(redisClient, natsConn, logger)

	templateService := service.NewTemplateService(templateRepo, validate, redisClient, cfg.GalleryCacheTTL, logger)
	conversationService := service.NewConversationService(templateRepo, aiClient, logger)
	classroomService := service.NewClassroomService(classroomRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, classroomRepo, validate, logger)
	rubricService := service.NewRubricService(assignmentRepo, classroomRepo, uploader, aiClient, logger)
	gradingService := service.NewGradingService(assignmentRepo, classroomRepo, aiClient, notifier, logger)
	submissionService := service.NewSubmissionService(assignmentRepo, classroomRepo, uploader, gradingService, logger)
	chatService := service.NewChatService(aiClient, logger)

	templateHandler := handler.NewTemplateHandler(templateService, conversationService, logger)
	classroomHandler := handler.NewClassroomHandler(classroomService, logger)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService, rubricService, logger)
	filesHandler := handler.NewFilesHandler(submissionService, rubricService, cfg.MaxUploadMB, logger)
	openaiHandler := handler.NewOpenAIHandler(gradingService, chatService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.MaxUploadMB + 1) << 20,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		TemplateHandler:   templateHandler,
		ClassroomHandler:  classroomHandler,
		AssignmentHandler: assignmentHandler,
		FilesHandler:      filesHandler,
		OpenAIHandler:     openaiHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
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
