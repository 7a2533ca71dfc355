package main

import (
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"mailprobe/config"
	"mailprobe/middleware"
	"mailprobe/routes"
	"mailprobe/verifier"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if config.AppConfig.Environment == "development" {
		logrus.SetFormatter(&logrus.TextFormatter{})
		logrus.SetLevel(logrus.DebugLevel)
	}

	// Initialize Sentry when a DSN is configured
	if config.AppConfig.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.AppConfig.SentryDSN,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			log.Fatalf("Failed to initialize Sentry: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Build the validation engine from the service configuration
	v := verifier.New(verifier.Config{
		HeloDomain:          config.AppConfig.HeloDomain,
		MailFrom:            config.AppConfig.MailFrom,
		SMTPPort:            config.AppConfig.SMTPPort,
		DNSServers:          config.AppConfig.DNSServers,
		DNSTimeout:          config.AppConfig.DNSTimeout,
		ConnectTimeout:      config.AppConfig.ConnectTimeout,
		ReplyTimeout:        config.AppConfig.ReplyTimeout,
		DialogueTimeout:     config.AppConfig.DialogueTimeout,
		TLSHandshakeTimeout: config.AppConfig.TLSHandshakeTimeout,
		FallbackPortTimeout: config.AppConfig.FallbackPortTimeout,
		CatchallProbes:      config.AppConfig.CatchallProbes,
		CatchallProbeDelay:  config.AppConfig.CatchallProbeDelay,
		MaxMXHosts:          config.AppConfig.MaxMXHosts,
	})

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(app, v)

	// Start server
	logrus.Infof("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
