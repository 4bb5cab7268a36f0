// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned when no upstream credential is configured.
var ErrMissingAPIKey = errors.New("OPENROUTER_API_KEY is required")

// Config holds all server configuration.
type Config struct {
	Port               string
	FrontendURL        string
	AllowedOrigins     []string
	MaxRequestBodySize int64
	Upstream           UpstreamConfig
	Usage              UsageConfig
}

// UpstreamConfig controls the chat-completion provider connection.
type UpstreamConfig struct {
	APIKey  string
	BaseURL string
	AppURL  string // sent as HTTP-Referer
	Title   string // sent as X-Title
	Timeout time.Duration
}

// UsageConfig controls the usage ledger database and its retention.
type UsageConfig struct {
	DBPath          string
	Retention       time.Duration
	CleanupInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		FrontendURL:        getEnv("FRONTEND_URL", ""),
		AllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MaxRequestBodySize: int64(getEnvInt("MAX_REQUEST_BODY_SIZE", 1<<20)),
		Upstream: UpstreamConfig{
			APIKey:  strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
			BaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			AppURL:  getEnv("APP_URL", "http://localhost:8080"),
			Title:   getEnv("APP_TITLE", "ConsoleBot"),
			Timeout: getEnvDuration("UPSTREAM_TIMEOUT", 0),
		},
		Usage: UsageConfig{
			DBPath:          getEnv("DB_PATH", "./data/consolebot.db"),
			Retention:       getEnvDuration("USAGE_RETENTION", 30*24*time.Hour),
			CleanupInterval: getEnvDuration("USAGE_CLEANUP_INTERVAL", time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Upstream.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if _, err := url.ParseRequestURI(c.Upstream.BaseURL); err != nil {
		return fmt.Errorf("OPENROUTER_BASE_URL is not a valid URL: %w", err)
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be >= 0")
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0")
	}
	if c.Usage.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Usage.Retention <= 0 {
		return fmt.Errorf("USAGE_RETENTION must be > 0")
	}
	if c.Usage.CleanupInterval <= 0 {
		return fmt.Errorf("USAGE_CLEANUP_INTERVAL must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// ClientConfig holds terminal client configuration.
type ClientConfig struct {
	ServerURL string
	Timeout   time.Duration
}

// LoadClient reads terminal client configuration from environment variables.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		ServerURL: strings.TrimRight(getEnv("CHAT_SERVER_URL", "http://localhost:8080"), "/"),
		Timeout:   getEnvDuration("CHAT_CLIENT_TIMEOUT", 0),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the client configuration.
func (c *ClientConfig) Validate() error {
	u, err := url.ParseRequestURI(c.ServerURL)
	if err != nil {
		return fmt.Errorf("CHAT_SERVER_URL is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("CHAT_SERVER_URL must use http or https, got %q", u.Scheme)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("CHAT_CLIENT_TIMEOUT must be >= 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
