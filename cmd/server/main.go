package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron"

	config "github.com/dailyspark/dailyspark/configs"
	"github.com/dailyspark/dailyspark/internal/api/handlers"
	"github.com/dailyspark/dailyspark/internal/api/middleware"
	job "github.com/dailyspark/dailyspark/internal/jobs"
	"github.com/dailyspark/dailyspark/internal/metrics"
	"github.com/dailyspark/dailyspark/internal/queue"
	"github.com/dailyspark/dailyspark/internal/repository"
	"github.com/dailyspark/dailyspark/internal/service"
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
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	queueRepo := repository.NewQueueRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	r2Service := service.NewR2Service(*cfg)
	publishers := service.NewPublisherRegistry(
		service.NewLinkedinService(*cfg),
		service.NewXService(*cfg),
		service.NewFacebookService(*cfg),
		service.NewInstagramService(*cfg),
		service.NewTelegramService(*cfg),
	)

	queueService := service.NewQueueService(queueRepo)
	dispatchService := service.NewDispatchService(queueRepo, historyRepo, publishers, r2Service, client, collector)
	historyService := service.NewHistoryService(historyRepo, queueService, dispatchService, r2Service)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	queueH := handlers.NewQueueHandler(queueService)
	api.Post("/queue/create", queueH.CreateQueueEntry)
	api.Get("/queue", queueH.ListQueue)
	api.Delete("/queue/:id", queueH.RemoveQueueEntry)

	history := handlers.NewHistoryHandler(historyService)
	api.Get("/history", history.ListHistory)
	api.Post("/history/action", history.HistoryAction)

	post := handlers.NewPostHandler(dispatchService, r2Service)
	api.Post("/posts/send", post.SendPost)
	api.Post("/media/upload", post.UploadMedia)

	// periodic dispatch tick
	dispatchJob := job.NewDispatchJob(dispatchService)

	c := cron.New()
	c.AddFunc(cfg.DispatchSchedule, dispatchJob.Run)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		cleanupWorker := queue.NewQueue(r2Service)
		mux.HandleFunc(queue.TaskTypeMediaCleanup, cleanupWorker.HandleMediaCleanupTask)

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
