package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marminbh/location-svc/internal/handlers"
)

// SetupRoutes configures all application routes with dependencies
func SetupRoutes(app *fiber.App, healthHandler *handlers.HealthHandler, searchHandler *handlers.SearchHandler) {
	// Health check endpoint
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 routes
	api := app.Group("/api/v1")
	api.Get("/locations/:kind/search", searchHandler.Search)
}
