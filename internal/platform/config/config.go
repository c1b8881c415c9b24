// Package config loads runtime configuration for the activities API from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type StorageBackend string

const (
	StorageMemory   StorageBackend = "memory"
	StoragePostgres StorageBackend = "postgres"
	StorageRedis    StorageBackend = "redis"
)

type Config struct {
	Port string

	Storage StorageBackend

	DatabaseURL             string
	DatabaseMaxConns        int32
	DatabaseMaxConnIdleTime time.Duration
	DatabasePingTimeout     time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// SeedRoster loads the built-in activities on startup.
	SeedRoster bool

	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment, applying defaults suitable for local dev.
func Load() (Config, error) {
	cfg := Config{
		Port:            getenv("PORT", "8080"),
		Storage:         StorageBackend(strings.ToLower(getenv("STORAGE_BACKEND", string(StorageMemory)))),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisPrefix:     getenv("REDIS_PREFIX", "roster:"),
		SeedRoster:      true,
		ShutdownTimeout: 10 * time.Second,
	}

	switch cfg.Storage {
	case StorageMemory, StorageRedis:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("missing required env var: DATABASE_URL (STORAGE_BACKEND=postgres)")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_BACKEND must be one of memory|postgres|redis, got %q", cfg.Storage)
	}

	if v := os.Getenv("DATABASE_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("DATABASE_MAX_CONNS must be a non-negative integer: %q", v)
		}
		cfg.DatabaseMaxConns = int32(n)
	}
	if v := os.Getenv("DATABASE_MAX_CONN_IDLE_TIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("DATABASE_MAX_CONN_IDLE_TIME must be a non-negative duration (e.g. 5m): %q", v)
		}
		cfg.DatabaseMaxConnIdleTime = d
	}
	if v := os.Getenv("DATABASE_PING_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("DATABASE_PING_TIMEOUT must be a non-negative duration (e.g. 5s): %q", v)
		}
		cfg.DatabasePingTimeout = d
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("REDIS_DB must be a non-negative integer: %q", v)
		}
		cfg.RedisDB = n
	}
	if v := os.Getenv("SEED_ROSTER"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("SEED_ROSTER must be a boolean: %w", err)
		}
		cfg.SeedRoster = b
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUT must be a duration (e.g. 10s): %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	return cfg, nil
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
