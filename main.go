package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"academy-dashboard/handlers"
	"academy-dashboard/middleware"
	"academy-dashboard/models"
	"academy-dashboard/services"
	"academy-dashboard/utils"
	"academy-dashboard/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 16 * 1024 * 1024, // avatars are the largest upload
	})

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Email, X-User-Roles",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Participant{},
		&models.Assignment{},
		&models.Submission{},
		&models.PeerReview{},
		&models.Achievement{},
		&models.ParticipantAchievement{},
		&models.ParticipantMastery{},
		&models.LeaderboardEntry{},
		&models.ActivityLog{},
		&models.IntelDrop{},
		&models.Comment{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := services.SeedAchievementCatalog(db); err != nil {
		log.Fatal("failed to seed achievement catalog:", err)
	}

	if err := utils.InitStorage(); err != nil {
		log.Printf("⚠️  Avatar storage disabled: %v", err)
	}

	notifier := services.NewNotifier()

	registrationService := services.NewRegistrationService(db, notifier)
	submissionService := services.NewSubmissionService(db, notifier)
	peerReviewService := services.NewPeerReviewService(db, notifier)
	masteryService := services.NewMasteryService(db, notifier)
	recognitionService := services.NewRecognitionService(db, notifier)
	leaderboardService := services.NewLeaderboardService(db)
	intelService := services.NewIntelService(db, notifier)
	commentService := services.NewCommentService(db)
	contentService := services.NewContentService()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Roster sync is optional: without an auth service URL the worker stays off.
	if authServiceURL := os.Getenv("AUTH_SERVICE_URL"); authServiceURL != "" {
		serviceToken := os.Getenv("ACADEMY_SERVICE_TOKEN")
		if serviceToken == "" {
			log.Fatal("ACADEMY_SERVICE_TOKEN environment variable not set")
		}
		syncWorker := workers.NewRosterSyncWorker(db, authServiceURL, "/api/v1/public/profiles", serviceToken)
		syncWorker.Start(ctx)
	} else {
		log.Println("⚠️  AUTH_SERVICE_URL not set — roster sync worker disabled")
	}

	sched, err := services.StartScheduler(masteryService, leaderboardService, recognitionService, intelService)
	if err != nil {
		log.Fatal("failed to start scheduler:", err)
	}

	// Cron endpoints are gated by CRON_SECRET instead of the session headers.
	// Registered before the /api group so its middleware never sees them.
	handlers.SetupCronRoutes(app, masteryService, leaderboardService, recognitionService, intelService)

	// All interactive routes require the gateway-forwarded session context.
	limiter := middleware.NewRateLimiter(120, time.Minute)
	api := app.Group("/api", middleware.UserContextMiddleware(), limiter.Handler())

	handlers.SetupParticipantRoutes(api, db, registrationService, masteryService, recognitionService)
	handlers.SetupSubmissionRoutes(api, db, submissionService, commentService)
	handlers.SetupPeerReviewRoutes(api, db, peerReviewService)
	handlers.SetupAnalyticsRoutes(api, db, leaderboardService, intelService, contentService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Academy dashboard running on http://localhost:%s", port)
	log.Println("✅ Scheduler running (mastery, recognitions, intel, reminders)")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := sched.Shutdown(); err != nil {
		log.Printf("scheduler shutdown error: %v", err)
	}
	if err := app.Shutdown(); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
}
