// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
)

// Config holds every tunable the service reads at startup.
type Config struct {
	Port        string
	Env         string // "development" enables verbose error detail
	MongoURI    string
	MongoDB     string
	PostgresURI string
	RedisAddr   string
	NATSURL     string // optional; empty disables event publishing
	JWTSecret   string
}

// Load reads the environment, applying defaults for optional values.
// MONGO_URI and JWT_SECRET are required.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getenv("PORT", "8080"),
		Env:         getenv("APP_ENV", "production"),
		MongoURI:    os.Getenv("MONGO_URI"),
		MongoDB:     getenv("MONGO_DB", "eternaverse"),
		PostgresURI: os.Getenv("POSTGRES_URI"),
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		NATSURL:     os.Getenv("NATS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

// Development reports whether verbose error detail should be exposed.
func (c *Config) Development() bool { return c.Env == "development" }

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
