package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	controller "mailprobe/controllers"
	"mailprobe/middleware"
	"mailprobe/verifier"
)

func SetupRoutes(app *fiber.App, v *verifier.Verifier) {
	validateLogger := log.New(os.Stdout, "VALIDATE: ", log.Ldate|log.Ltime|log.Lshortfile)
	validationController := controller.NewValidationController(v, validateLogger)

	// Health check endpoints
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API group with versioning and logging middleware
	api := app.Group("/api/v1", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Validation routes with rate limiting; every request here can open
	// SMTP connections to third-party servers.
	validate := api.Group("/validate", middleware.ValidationRateLimiter())
	validate.Post("/email", validationController.ValidateEmail)
	validate.Get("/email", validationController.ValidateEmailQuery)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})

	validateLogger.Println("Validation routes initialized successfully")
}
