// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"clubroster/internal/platform/database"
)

// Config is everything the server needs to start.
type Config struct {
	Addr          string
	LogLevel      string
	SessionSecret string
	SessionTTL    time.Duration
	RedisAddr     string
	Database      database.Config
}

// FromEnv reads configuration from environment variables, applying
// development defaults where a value is missing.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:          envOr("CLUBROSTER_ADDR", ":8080"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    12 * time.Hour,
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		Database: database.Config{
			Host:     envOr("DB_HOST", "localhost"),
			Port:     5432,
			User:     envOr("DB_USER", "clubroster"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     envOr("DB_NAME", "clubroster"),
			SSLMode:  envOr("DB_SSLMODE", "disable"),
		},
	}

	if cfg.SessionSecret == "" {
		// Development default; production must override.
		cfg.SessionSecret = "dev-secret-change-in-production"
	}

	if raw := os.Getenv("DB_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse DB_PORT: %w", err)
		}
		cfg.Database.Port = port
	}

	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = ttl
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
