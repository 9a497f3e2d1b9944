package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
)

// Environment name constants used in ENVIRONMENT config field.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

// Config holds all configuration for the application
type Config struct {
	// Database. postgres:// URLs use pgx; sqlite: URLs use the embedded store.
	DatabaseURL      string        `conf:"required,env:DATABASE_URL,noprint"`
	DBMaxConns       int           `conf:"default:20,env:DB_MAX_CONNS"`
	DBIdleTimeout    time.Duration `conf:"default:30s,env:DB_IDLE_TIMEOUT"`
	DBConnectTimeout time.Duration `conf:"default:2s,env:DB_CONNECT_TIMEOUT"`
	DBAcquireTimeout time.Duration `conf:"default:2s,env:DB_ACQUIRE_TIMEOUT"`
	AutoMigrate      bool          `conf:"default:true,env:AUTO_MIGRATE"`

	// Events (postgres only)
	EventsEnabled bool `conf:"default:true,env:EVENTS_ENABLED"`

	// Redis. Empty disables the item cache and the shared rate limiter.
	RedisURL     string        `conf:"env:REDIS_URL,noprint"`
	ItemCacheTTL time.Duration `conf:"default:5m,env:ITEM_CACHE_TTL"`

	// Application
	Port            int           `conf:"default:3001,env:PORT"`
	LogLevel        string        `conf:"default:info,env:LOG_LEVEL"`
	Environment     string        `conf:"default:development,enum:development|testing|production,env:ENVIRONMENT"`
	ShutdownTimeout time.Duration `conf:"default:10s,env:SHUTDOWN_TIMEOUT"`

	// HTTP
	// CORS: comma-separated list of allowed origins; * allows all (dev only)
	CORSAllowedOrigins string `conf:"default:*,env:CORS_ALLOWED_ORIGINS"`
	RateLimitPerMinute int    `conf:"default:100,env:RATE_LIMIT_PER_MINUTE"`

	// Observability
	ServiceName    string `conf:"default:items-api,env:SERVICE_NAME"`
	ServiceVersion string `conf:"default:dev,env:SERVICE_VERSION"`
	OtelEndpoint   string `conf:"env:OTEL_ENDPOINT"`
	SentryDSN      string `conf:"env:SENTRY_DSN,noprint"`
}

// Load reads configuration from environment variables with sensible defaults.
// A missing DATABASE_URL is an error.
func Load() (*Config, error) {
	var cfg Config
	_ = godotenv.Load()
	if _, err := conf.Parse("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// IsProduction reports whether ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ValidateForProduction enforces security requirements when ENVIRONMENT=production.
// Returns an error if any critical settings are missing or unsafe.
// No-ops for non-production environments.
func ValidateForProduction(cfg *Config) error {
	if cfg.Environment != EnvProduction {
		return nil
	}

	var errs []string

	if cfg.LogLevel == "debug" {
		errs = append(errs, "LOG_LEVEL must not be 'debug' in production (may leak sensitive data)")
	}

	if strings.TrimSpace(cfg.CORSAllowedOrigins) == "*" {
		errs = append(errs, "CORS_ALLOWED_ORIGINS must list explicit origins in production")
	}

	if strings.HasPrefix(cfg.DatabaseURL, "sqlite:") {
		errs = append(errs, "DATABASE_URL must point at PostgreSQL in production")
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("production config validation failed: %s", strings.Join(errs, "; "))
}
