// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"budget-tracker/internal/log"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds the server settings.
type Config struct {
	// HTTP Server
	Port string
	Env  string

	// Database
	DBPath string

	// Sessions
	SessionDuration time.Duration
	SessionPurge    time.Duration

	// Listing
	PageSize int

	// Logging
	LogLevel  string
	LogFormat string

	// Bootstrap user, created when no users exist
	AdminUser     string
	AdminEmail    string
	AdminPassword string
}

// Load reads the configuration from the environment, using defaults for unset values.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),
		Env:  strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),

		DBPath: getEnv("DB_PATH", "budget.db"),

		SessionDuration: getEnvDuration("SESSION_DURATION", time.Hour),
		SessionPurge:    getEnvDuration("SESSION_PURGE_INTERVAL", 10*time.Minute),

		PageSize: getEnvInt("PAGE_SIZE", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		AdminUser:     os.Getenv("ADMIN_USER"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "user@example.com"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}
}

// Production reports whether the server runs in production mode.
func (c *Config) Production() bool {
	return c.Env == EnvProduction
}

// Validate validates the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		errs = append(errs, fmt.Sprintf("invalid APP_ENV '%s': must be %s or %s", c.Env, EnvDevelopment, EnvProduction))
	}

	if c.DBPath == "" {
		errs = append(errs, "database path cannot be empty")
	}

	if c.SessionDuration < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid session duration %v: must be at least 1 minute", c.SessionDuration))
	}
	if c.SessionPurge < time.Second {
		errs = append(errs, fmt.Sprintf("invalid session purge interval %v: must be at least 1 second", c.SessionPurge))
	}

	if c.PageSize < 1 || c.PageSize > 100 {
		errs = append(errs, fmt.Sprintf("invalid page size %d: must be between 1 and 100", c.PageSize))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err.Error())
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if (c.AdminUser == "") != (c.AdminPassword == "") {
		errs = append(errs, "ADMIN_USER and ADMIN_PASSWORD must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
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
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
