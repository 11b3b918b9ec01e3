package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	// SubscriberInboxCapacity bounds each live subscriber's pending-event queue.
	SubscriberInboxCapacity int `env:"SUBSCRIBER_INBOX_CAPACITY" default:"100"`

	// HeartbeatInterval is how long a stream may sit idle before a keep-alive
	// frame is written, so proxies do not drop the connection.
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" default:"25s"`

	// LockTimeout caps how long a bulk mutation waits on contended row locks.
	LockTimeout time.Duration `env:"LOCK_TIMEOUT" default:"5s"`

	MaxStreamConnections int64 `env:"MAX_STREAM_CONNECTIONS" default:"10000"`

	// Rate limit on mutating endpoints, per client IP.
	MutationRatePerSecond float64 `env:"MUTATION_RATE_PER_SECOND" default:"20"`
	MutationBurst         int     `env:"MUTATION_BURST" default:"40"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if cfg.SubscriberInboxCapacity <= 0 {
		return errors.New("SUBSCRIBER_INBOX_CAPACITY must be positive")
	}
	if cfg.HeartbeatInterval <= 0 {
		return errors.New("HEARTBEAT_INTERVAL must be positive")
	}
	if cfg.LockTimeout < 0 {
		return errors.New("LOCK_TIMEOUT must not be negative")
	}
	if cfg.MaxStreamConnections <= 0 {
		return errors.New("MAX_STREAM_CONNECTIONS must be positive")
	}
	return nil
}
