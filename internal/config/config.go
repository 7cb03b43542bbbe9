package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Presence PresenceConfig
	Database DatabaseConfig
	Sink     SinkConfig
}

type ServerConfig struct {
	Host   string
	Port   string
	WSPort string
}

type RedisConfig struct {
	URL string
}

type NATSConfig struct {
	URL string
}

// PresenceConfig controls the presence TTL and the touch debounce window.
type PresenceConfig struct {
	TTL              time.Duration
	TouchMinInterval time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// SinkConfig controls the persistent-record sink subscriber.
type SinkConfig struct {
	QueueGroup string
}

const (
	defaultPresenceTTLSeconds = 600
	defaultTouchMinIntervalMS = 30000
	defaultSinkQueueGroup     = "location-persistence"
	defaultWSPort             = "8081"
)

func Load() (*Config, error) {
	var missing []string

	get := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			missing = append(missing, key)
		}
		return val
	}

	getOr := func(key, def string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return def
	}

	getIntOr := func(key string, def int) int {
		val := os.Getenv(key)
		if val == "" {
			return def
		}
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			missing = append(missing, key+" (must be a positive integer)")
			return def
		}
		return n
	}

	config := &Config{
		Server: ServerConfig{
			Host:   get("SERVER_HOST"),
			Port:   get("SERVER_PORT"),
			WSPort: getOr("WS_PORT", defaultWSPort),
		},
		Redis: RedisConfig{
			URL: get("REDIS_URL"),
		},
		NATS: NATSConfig{
			URL: get("NATS_URL"),
		},
		Presence: PresenceConfig{
			TTL:              time.Duration(getIntOr("PRESENCE_TTL_SECONDS", defaultPresenceTTLSeconds)) * time.Second,
			TouchMinInterval: time.Duration(getIntOr("TOUCH_MIN_INTERVAL_MS", defaultTouchMinIntervalMS)) * time.Millisecond,
		},
		Database: DatabaseConfig{
			Host:     get("DB_HOST"),
			Port:     get("DB_PORT"),
			User:     get("DB_USER"),
			Password: get("DB_PASSWORD"),
			DBName:   get("DB_NAME"),
			SSLMode:  get("DB_SSLMODE"),
		},
		Sink: SinkConfig{
			QueueGroup: getOr("SINK_QUEUE_GROUP", defaultSinkQueueGroup),
		},
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return config, nil
}

// ConnectionString returns a DSN string for GORM
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}
