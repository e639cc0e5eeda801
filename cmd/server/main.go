package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/composer-api/configs"
	"github.com/maheshrc27/composer-api/internal/api/handlers"
	"github.com/maheshrc27/composer-api/internal/api/middleware"
	"github.com/maheshrc27/composer-api/internal/backend"
	job "github.com/maheshrc27/composer-api/internal/jobs"
	"github.com/maheshrc27/composer-api/internal/queue"
	"github.com/maheshrc27/composer-api/internal/repository"
	"github.com/maheshrc27/composer-api/internal/service"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	tokens := service.NewTokenStore(tokenRepo, cfg.SecretKey)
	backendClient := backend.NewClient(cfg.BackendURL, tokens)

	notificationService := service.NewNotificationService()
	relay := backend.NewRelay(cfg.BackendWSURL, tokens, notificationService)
	defer relay.StopAll()

	var captions service.CaptionProvider
	if cfg.CaptionProvider == "anthropic" && cfg.AnthropicAPIKey != "" {
		captions = service.NewAnthropicCaptionProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	} else {
		captions = service.NewBackendAIProvider(backendClient)
	}
	images := service.NewBackendAIProvider(backendClient)

	r2Service := service.NewR2Service(*cfg)
	store := service.NewSessionStore()
	composerService := service.NewComposerService(store, captions, images, r2Service, cfg.GenerationConcurrency)
	submissionService := service.NewSubmissionService(store, backendClient)
	historyService := service.NewHistoryService(backendClient)
	authService := service.NewAuthService(backendClient, tokens, relay, userRepo)
	userService := service.NewUserService(userRepo, tokenRepo)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Post("/login", auth.Login)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Post("/logout", auth.Logout)

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	composer := handlers.NewComposerHandler(composerService, client)
	api.Get("/composer/:platform", composer.GetSession)
	api.Post("/composer/:platform/generate", composer.GenerateRows)
	api.Post("/composer/:platform/rows", composer.AddRow)
	api.Post("/composer/:platform/rows/edit", composer.EditCell)
	api.Post("/composer/:platform/rows/:rowId/select", composer.ToggleSelect)
	api.Post("/composer/:platform/select_all", composer.SelectAll)
	api.Post("/composer/:platform/reorder", composer.Reorder)
	api.Post("/composer/:platform/rows/delete", composer.BulkDelete)
	api.Post("/composer/:platform/rows/:rowId/duplicate", composer.DuplicateRow)
	api.Post("/composer/:platform/rows/:rowId/media", composer.UploadMedia)
	api.Post("/composer/:platform/rows/:rowId/carousel", composer.UploadCarousel)
	api.Post("/composer/:platform/rows/:rowId/thumbnail", composer.UploadThumbnail)
	api.Post("/composer/:platform/captions", composer.GenerateCaptions)
	api.Post("/composer/:platform/images", composer.GenerateImages)

	submission := handlers.NewSubmissionHandler(submissionService)
	api.Post("/composer/:platform/submit", submission.Submit)

	history := handlers.NewHistoryHandler(historyService)
	api.Get("/history/:platform", history.List)
	api.Put("/history/:platform/update", history.Update)
	api.Delete("/history/:platform/remove", history.Delete)

	notifications := handlers.NewNotificationHandler(notificationService)
	api.Get("/notifications", notifications.List)
	api.Get("/notifications/unread", notifications.UnreadCount)
	api.Post("/notifications/:id/read", notifications.MarkRead)
	api.Post("/notifications/read_all", notifications.MarkAllRead)

	// cron jobs
	statusRefreshJob := job.NewStatusRefreshJob(tokenRepo, historyService, composerService)

	//queue
	queueW := queue.NewQueue(composerService)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", statusRefreshJob.RefreshStatuses)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypeGenerateImages, queueW.HandleGenerateImagesTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
