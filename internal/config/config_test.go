package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when OPENROUTER_API_KEY is empty")
	}
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestLoadRejectsWhitespaceAPIKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "   ")

	if _, err := Load(); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Upstream.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("unexpected base URL %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Title != "ConsoleBot" {
		t.Errorf("unexpected title %q", cfg.Upstream.Title)
	}
	if cfg.Upstream.Timeout != 0 {
		t.Errorf("expected no upstream timeout by default, got %v", cfg.Upstream.Timeout)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("unexpected allowed origins %v", cfg.AllowedOrigins)
	}
	if cfg.Usage.Retention != 30*24*time.Hour {
		t.Errorf("unexpected retention %v", cfg.Usage.Retention)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("PORT", "9090")
	t.Setenv("UPSTREAM_TIMEOUT", "45s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("USAGE_RETENTION", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %q", cfg.Port)
	}
	if cfg.Upstream.Timeout != 45*time.Second {
		t.Errorf("expected 45s timeout, got %v", cfg.Upstream.Timeout)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected allowed origins %v", cfg.AllowedOrigins)
	}
	if cfg.Usage.Retention != 30*24*time.Hour {
		t.Errorf("expected invalid duration to fall back, got %v", cfg.Usage.Retention)
	}
}

func TestLoadRejectsBadBaseURL(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("OPENROUTER_BASE_URL", "not a url")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid base URL")
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("CHAT_SERVER_URL", "http://chat.internal:8080/")

	cfg, err := LoadClient()
	if err != nil {
		t.Fatalf("LoadClient failed: %v", err)
	}
	if cfg.ServerURL != "http://chat.internal:8080" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.ServerURL)
	}

	t.Setenv("CHAT_SERVER_URL", "ftp://chat.internal")
	if _, err := LoadClient(); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}
