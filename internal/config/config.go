// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache, rate limiting and note events (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Identity tokens. One of JWTSecret (HS256) or JWTPublicKey (RS256 PEM) must be set.
	JWTSecret    string `env:"JWT_SECRET"`
	JWTPublicKey string `env:"JWT_PUBLIC_KEY"`
	JWTIssuer    string `env:"JWT_ISSUER"`
	JWTAudience  string `env:"JWT_AUDIENCE"`

	// Daily note quota
	QuotaFreeDailyLimit    int    `env:"QUOTA_FREE_DAILY_LIMIT" envDefault:"60"`
	QuotaPremiumDailyLimit int    `env:"QUOTA_PREMIUM_DAILY_LIMIT" envDefault:"180"`
	QuotaTimezone          string `env:"QUOTA_TIMEZONE" envDefault:"Local"`

	// Expiry of archived notes
	ExpiryEnabled     bool          `env:"EXPIRY_ENABLED" envDefault:"true"`
	ExpiryRetention   time.Duration `env:"EXPIRY_RETENTION" envDefault:"720h"`
	ExpiryTimeout     time.Duration `env:"EXPIRY_TIMEOUT" envDefault:"2m"`
	ExpiryMaxAttempts int           `env:"EXPIRY_MAX_ATTEMPTS" envDefault:"3"`

	// Note lifecycle event logging worker
	EventsWorkerEnabled bool `env:"EVENTS_WORKER_ENABLED" envDefault:"true"`

	// Per-IP abuse guard in front of the API
	RateLimitIPEnabled bool `env:"RATE_LIMIT_IP_ENABLED" envDefault:"true"`
	RateLimitIPRPS     int  `env:"RATE_LIMIT_IP_RPS" envDefault:"20"`
	RateLimitIPBurst   int  `env:"RATE_LIMIT_IP_BURST" envDefault:"40"`

	// CORS configuration
	// Comma-separated list of allowed origins; "*" allows any origin.
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// QuotaLocation resolves the location whose calendar day bounds the quota.
func (c *Config) QuotaLocation() (*time.Location, error) {
	if c.QuotaTimezone == "" || c.QuotaTimezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.QuotaTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTA_TIMEZONE %q: %w", c.QuotaTimezone, err)
	}
	return loc, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.JWTSecret == "" && c.JWTPublicKey == "" {
		return errors.New("one of JWT_SECRET or JWT_PUBLIC_KEY is required")
	}
	if c.QuotaFreeDailyLimit <= 0 || c.QuotaPremiumDailyLimit <= 0 {
		return errors.New("quota limits must be positive")
	}
	if c.ExpiryRetention <= 0 {
		return errors.New("EXPIRY_RETENTION must be positive")
	}
	if _, err := c.QuotaLocation(); err != nil {
		return err
	}
	return nil
}

// Load parses environment variables and returns a Config.
// In development a local .env file is read first; real environment
// variables always win over it.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	if appEnv := os.Getenv("APP_ENV"); appEnv == "" || appEnv == "development" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
