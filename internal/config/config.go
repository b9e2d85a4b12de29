package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"scribeai/internal/logger"
)

type Config struct {
	// HTTP server
	Addr string

	// User store; postgres:// URLs use pgx, anything else is a sqlite DSN
	DatabaseURL string

	// Session signing
	AuthSecret    string
	SessionMaxAge time.Duration

	// Transient upload storage
	UploadDir      string
	MaxUploadBytes int64
	UploadTTL      time.Duration

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads the server configuration from the environment. Provider
// credentials are not part of it; see LoadProviders.
func Load() (*Config, error) {
	config := &Config{
		Addr:          getEnv("SCRIBEAI_ADDR", ":3000"),
		DatabaseURL:   getEnv("DATABASE_URL", "file:scribeai.db"),
		AuthSecret:    getEnv("AUTH_SECRET", ""),
		UploadDir:     getEnv("UPLOAD_DIR", os.TempDir()),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogTimeFormat: getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:     getEnv("LOG_OUTPUT", "stdout"),
	}

	var err error
	if config.SessionMaxAge, err = getDuration("SESSION_MAX_AGE", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if config.UploadTTL, err = getDuration("UPLOAD_TTL", time.Hour); err != nil {
		return nil, err
	}

	maxMB, err := getInt("MAX_UPLOAD_MB", 20)
	if err != nil {
		return nil, err
	}
	config.MaxUploadBytes = int64(maxMB) * 1024 * 1024

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR is required")
	}
	return nil
}

// RequireAuthSecret fails when no session signing secret is configured.
// Only the server needs one, so Load does not enforce it.
func (c *Config) RequireAuthSecret() error {
	if len(c.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set to at least 32 characters")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}

// firstEnv returns the first non-empty value among the given variable names.
func firstEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}
