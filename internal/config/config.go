package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config represents the complete application configuration
type Config struct {
	LogLevel  string          `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	HTTP      HTTPConfig      `envconfig:"HTTP"`
	Database  DatabaseConfig  `envconfig:"DATABASE"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	Cache     CacheConfig     `envconfig:"CACHE"`
	Index     IndexConfig     `envconfig:"INDEX"`
	Build     BuildConfig     `envconfig:"BUILD"`
	RateLimit RateLimitConfig `envconfig:"RATE_LIMIT"`
	Ingest    IngestConfig    `envconfig:"INGEST"`
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	Addr            string        `envconfig:"ADDR" default:"0.0.0.0:8080" validate:"required"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	Profiling       bool          `envconfig:"PROFILING" default:"false"`
}

// DatabaseConfig selects and locates the index store
type DatabaseConfig struct {
	Driver     string `envconfig:"DRIVER" default:"postgres" validate:"oneof=postgres sqlite"`
	URL        string `envconfig:"URL" validate:"required_if=Driver postgres"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/index.db"`
	Migrate    bool   `envconfig:"MIGRATE" default:"true"`
}

// RedisConfig contains the redis connection settings
type RedisConfig struct {
	Addr     string `envconfig:"ADDR" default:"localhost:6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0" validate:"min=0"`
}

// CacheConfig controls the read cache.
// A zero TTL keeps entries until they are flushed by an operator.
type CacheConfig struct {
	Backend           string        `envconfig:"BACKEND" default:"redis" validate:"oneof=redis memory"`
	TTL               time.Duration `envconfig:"TTL" default:"0s" validate:"min=0"`
	InvalidateOnBuild bool          `envconfig:"INVALIDATE_ON_BUILD" default:"false"`
}

// IndexConfig contains index construction parameters
type IndexConfig struct {
	Size int `envconfig:"SIZE" default:"100" validate:"min=1"`
}

// BuildConfig controls mutual exclusion between concurrent builds
type BuildConfig struct {
	LockEnabled bool          `envconfig:"LOCK_ENABLED" default:"true"`
	LockTTL     time.Duration `envconfig:"LOCK_TTL" default:"10m" validate:"min=0"`
}

// RateLimitConfig limits write endpoints per client
type RateLimitConfig struct {
	Period time.Duration `envconfig:"PERIOD" default:"1m" validate:"gt=0"`
	Max    int64         `envconfig:"MAX" default:"10" validate:"min=0"`
}

// IngestConfig contains market data ingestion settings
type IngestConfig struct {
	Enabled      bool          `envconfig:"ENABLED" default:"false"`
	Interval     time.Duration `envconfig:"INTERVAL" default:"24h" validate:"gt=0"`
	LookbackDays int           `envconfig:"LOOKBACK_DAYS" default:"40" validate:"min=1"`
	Concurrency  int           `envconfig:"CONCURRENCY" default:"8" validate:"min=1"`
	UniverseURL  string        `envconfig:"UNIVERSE_URL" default:"https://en.wikipedia.org/wiki/Nasdaq-100" validate:"url"`
	YahooBaseURL string        `envconfig:"YAHOO_BASE_URL" default:"https://query1.finance.yahoo.com" validate:"url"`
}

// Load reads a .env file when present, then environment variables, and
// validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// SlogLevel maps LogLevel onto a slog level
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
