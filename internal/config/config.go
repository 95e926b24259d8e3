package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIURL is used when STUDIODESK_API_URL is unset.
const DefaultAPIURL = "http://localhost:8080/api"

// Config holds all client configuration
type Config struct {
	APIURL      string        // API root including the /api prefix
	DataDir     string        // Where client-local state (device id) is kept
	DeviceStore string        // "file", "sqlite" or "memory"
	LogLevel    string        // debug, info, warn, error
	LogFormat   string        // text or json
	MaxRetries  int           // Upload retries after the first attempt
	RetryDelay  time.Duration // Base upload backoff, doubled per retry
	PageBase    int           // 1 for one-based page numbers, 0 for zero-based
	MetricsAddr string        // Optional: serve Prometheus metrics on this address
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first; variables already set
// in the environment win.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with explicit .env files. Missing files are skipped.
func LoadFrom(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if f == "" {
			continue
		}
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{
		APIURL:      getEnv("STUDIODESK_API_URL", DefaultAPIURL),
		DataDir:     getEnv("STUDIODESK_DATA_DIR", defaultDataDir()),
		DeviceStore: strings.ToLower(getEnv("STUDIODESK_DEVICE_STORE", "file")),
		LogLevel:    strings.ToLower(getEnv("STUDIODESK_LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("STUDIODESK_LOG_FORMAT", "text")),
		MaxRetries:  getEnvInt("STUDIODESK_MAX_RETRIES", 3),
		RetryDelay:  getEnvDuration("STUDIODESK_RETRY_DELAY", time.Second),
		PageBase:    getEnvInt("STUDIODESK_PAGE_BASE", 1),
		MetricsAddr: getEnv("STUDIODESK_METRICS_ADDR", ""), // Optional
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate ensures configuration values are sensible
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("STUDIODESK_API_URL cannot be empty")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("STUDIODESK_API_URL must be an http or https URL, got %q", c.APIURL)
	}

	switch c.DeviceStore {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("STUDIODESK_DEVICE_STORE must be file, sqlite or memory, got %q", c.DeviceStore)
	}

	if c.DeviceStore != "memory" && c.DataDir == "" {
		return fmt.Errorf("STUDIODESK_DATA_DIR cannot be empty")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("STUDIODESK_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("STUDIODESK_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}

	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("STUDIODESK_MAX_RETRIES must be between 0 and 10, got %d", c.MaxRetries)
	}

	if c.RetryDelay <= 0 {
		return fmt.Errorf("STUDIODESK_RETRY_DELAY must be positive, got %s", c.RetryDelay)
	}

	if c.PageBase != 0 && c.PageBase != 1 {
		return fmt.Errorf("STUDIODESK_PAGE_BASE must be 0 or 1, got %d", c.PageBase)
	}

	return nil
}

// defaultDataDir is $XDG_CONFIG_HOME/studiodesk (or the platform equivalent).
func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "studiodesk")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration ("1s", "500ms") or a plain number of
// milliseconds, or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
