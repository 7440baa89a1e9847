// Package config loads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"orderledger/internal/core/types"
)

// Config holds every setting of the server and the CLI.
type Config struct {
	AppEnv   string
	LogLevel string

	DatabaseURL      string
	DBMaxConns       int32
	DBMinConns       int32
	StatementTimeout time.Duration

	ServerPort string

	// RedisURL is optional; without it locks are local no-ops and the dashboard is not cached.
	RedisURL          string
	DashboardCacheTTL time.Duration

	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration

	// AgingFallback is "order_date" or "none".
	AgingFallback   string
	DefaultCurrency types.Currency
	PhoneRegion     string

	// Worker schedules; zero disables a job.
	StatusRefreshInterval time.Duration
	ReconcileInterval     time.Duration
	CleanupInterval       time.Duration
}

// IsDevelopment reports whether the service runs with development logging.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads .env files (when present) and the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         int32(getEnvInt("DB_MAX_CONNS", 20)),
		DBMinConns:         int32(getEnvInt("DB_MIN_CONNS", 2)),
		StatementTimeout:   getEnvDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		RedisURL:           os.Getenv("REDIS_URL"),
		DashboardCacheTTL:  getEnvDuration("DASHBOARD_CACHE_TTL", 30*time.Second),
		IdempotencyEnabled: getEnvBool("IDEMPOTENCY_ENABLED", true),
		IdempotencyTTL:     getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		AgingFallback:      strings.ToLower(getEnv("LEDGER_AGING_FALLBACK", "order_date")),
		PhoneRegion:        strings.ToUpper(getEnv("PHONE_REGION", "KE")),

		StatusRefreshInterval: getEnvDuration("WORKER_STATUS_REFRESH_INTERVAL", time.Hour),
		ReconcileInterval:     getEnvDuration("WORKER_RECONCILE_INTERVAL", 24*time.Hour),
		CleanupInterval:       getEnvDuration("WORKER_CLEANUP_INTERVAL", time.Hour),
	}

	cur, err := types.ParseCurrency(getEnv("DEFAULT_CURRENCY", string(types.DefaultCurrency)))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_CURRENCY: %w", err)
	}
	cfg.DefaultCurrency = cur

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and enumerations.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	switch c.AgingFallback {
	case "order_date", "none":
	default:
		return fmt.Errorf("LEDGER_AGING_FALLBACK must be order_date or none, got %q", c.AgingFallback)
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	if c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS, got %d", c.DBMinConns)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
