package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/marminbh/location-svc/internal/redisstore"
	"github.com/marminbh/location-svc/internal/relay"
	"github.com/marminbh/location-svc/internal/sink"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// HealthHandler reports the status of the service's shared resources.
type HealthHandler struct {
	redis *redis.Client
	relay relay.Relay
	db    *gorm.DB
}

// NewHealthHandler creates a HealthHandler. db may be nil when the sink is
// not configured.
func NewHealthHandler(redisClient *redis.Client, r relay.Relay, db *gorm.DB) *HealthHandler {
	return &HealthHandler{redis: redisClient, relay: r, db: db}
}

// HealthCheck handles the health check endpoint
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	status := "healthy"

	if err := redisstore.HealthCheck(ctx, h.redis); err != nil {
		services["redis"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		services["redis"] = "healthy"
	}

	if h.relay == nil || !h.relay.IsConnected() {
		services["nats"] = "unhealthy: connection closed"
		status = "unhealthy"
	} else {
		services["nats"] = "healthy"
	}

	if h.db != nil {
		if err := sink.HealthCheck(ctx, h.db); err != nil {
			services["database"] = "unhealthy: " + err.Error()
			status = "unhealthy"
		} else {
			services["database"] = "healthy"
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
	}

	if status == "unhealthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response)
	}

	return c.JSON(response)
}
