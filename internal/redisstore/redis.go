package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/marminbh/location-svc/internal/config"
)

// Connect creates the shared Redis client and verifies connectivity.
// The client is a process-wide singleton owned by main; it is safe for
// concurrent use from many logical flows.
func Connect(cfg *config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Retry the initial ping with backoff, matching how the broker
	// connection is established at startup.
	backoff := time.Second
	maxBackoff := 30 * time.Second
	maxAttempts := 10

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = client.Ping(ctx).Err()
		cancel()
		if err == nil {
			logger.Info("Successfully connected to Redis",
				zap.String("addr", opts.Addr),
				zap.Int("db", opts.DB),
			)
			return client, nil
		}

		if attempt < maxAttempts {
			logger.Warn("Initial connection to Redis failed, retrying...",
				zap.Error(err),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
			)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}

	client.Close()
	return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", maxAttempts, err)
}

// Close closes the Redis client.
func Close(client *redis.Client, logger *zap.Logger) error {
	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("Redis connection closed")
	}
	return nil
}

// HealthCheck verifies the Redis connection is healthy.
func HealthCheck(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return client.Ping(ctx).Err()
}
