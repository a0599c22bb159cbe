package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"

	"github.com/mikesol/inboxpilot/config"
	"github.com/mikesol/inboxpilot/middleware"
	"github.com/mikesol/inboxpilot/routes"
	"github.com/mikesol/inboxpilot/utils"
	"github.com/mikesol/inboxpilot/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "INBOXPILOT: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Error reporting is optional; without a DSN sentry calls are no-ops
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// SMTP transport shared by the send worker and the test-send endpoint
	mailer := utils.NewMailer()

	// Initialize and start the sequence send worker
	sendWorker := worker.NewSequenceWorker(config.DB, mailer, log.New(os.Stdout, "SEQWORKER: ", log.LstdFlags))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sendWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB, mailer)

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	// Start server
	logger.Printf("Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
