// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Robertorri/HopVerk1/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	ObjectStore   ObjectStoreConfig
	Auth          AuthConfig
	RateLimit     RateLimitConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// ObjectStoreConfig holds S3 object storage configuration
type ObjectStoreConfig struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// AuthConfig holds credential and token configuration
type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	BcryptCost        int
	PasswordMinLength int
	LockoutThreshold  int
	LockoutDuration   time.Duration
}

// RateLimitConfig holds request rate limiting configuration
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
	MaxTrackedKeys    int
}

// AuditConfig holds audit trail configuration
type AuditConfig struct {
	RetentionDays int
	SweepSchedule string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("HOPVERK_HOST", "0.0.0.0"),
			Port:            getEnv("HOPVERK_PORT", "8080"),
			ReadTimeout:     getEnvDuration("HOPVERK_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("HOPVERK_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("HOPVERK_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("HOPVERK_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("HOPVERK_HEALTH_PORT", "9090"),
		},
		Database: DatabaseConfig{
			URL:         getEnv("HOPVERK_POSTGRES_URL", ""),
			MaxConns:    getEnvInt("HOPVERK_POSTGRES_MAX_CONNS", 25),
			MinConns:    getEnvInt("HOPVERK_POSTGRES_MIN_CONNS", 5),
			Timeout:     getEnvDuration("HOPVERK_POSTGRES_TIMEOUT", 10*time.Second),
			MaxLifetime: getEnvDuration("HOPVERK_POSTGRES_MAX_LIFETIME", time.Hour),
			MaxIdleTime: getEnvDuration("HOPVERK_POSTGRES_MAX_IDLE_TIME", 10*time.Minute),
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:     getEnv("HOPVERK_S3_ENDPOINT", ""),
			Region:       getEnv("HOPVERK_S3_REGION", "us-east-1"),
			Bucket:       getEnv("HOPVERK_S3_BUCKET", ""),
			AccessKey:    getEnv("HOPVERK_S3_ACCESS_KEY", ""),
			SecretKey:    getEnv("HOPVERK_S3_SECRET_KEY", ""),
			UsePathStyle: getEnvBool("HOPVERK_S3_USE_PATH_STYLE", false),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("HOPVERK_JWT_SECRET", ""),
			TokenTTL:          getEnvDuration("HOPVERK_TOKEN_TTL", 24*time.Hour),
			BcryptCost:        getEnvInt("HOPVERK_BCRYPT_COST", 12),
			PasswordMinLength: getEnvInt("HOPVERK_PASSWORD_MIN_LENGTH", 8),
			LockoutThreshold:  getEnvInt("HOPVERK_LOCKOUT_THRESHOLD", 5),
			LockoutDuration:   getEnvDuration("HOPVERK_LOCKOUT_DURATION", 15*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: getEnvInt("HOPVERK_RATELIMIT_REQUESTS", 100),
			WindowDuration:    getEnvDuration("HOPVERK_RATELIMIT_WINDOW", time.Minute),
			MaxTrackedKeys:    getEnvInt("HOPVERK_RATELIMIT_MAX_KEYS", 16384),
		},
		Audit: AuditConfig{
			RetentionDays: getEnvInt("HOPVERK_AUDIT_RETENTION_DAYS", 90),
			SweepSchedule: getEnv("HOPVERK_AUDIT_SWEEP_SCHEDULE", "@daily"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       parseLogLevel(getEnv("HOPVERK_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("HOPVERK_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	if c.Auth.BcryptCost < 10 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 10 and 31")
	}
	if c.Auth.LockoutThreshold < 1 {
		return fmt.Errorf("lockout threshold must be at least 1")
	}

	if c.RateLimit.RequestsPerWindow < 1 {
		return fmt.Errorf("rate limit requests per window must be at least 1")
	}
	if c.RateLimit.WindowDuration <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
