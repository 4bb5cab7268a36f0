package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxErrorBodySize caps how much of an upstream error body is kept for logging.
const maxErrorBodySize = 64 << 10

var errMissingAPIKey = errors.New("openrouter: API key not set")

// OpenRouterClient talks to the OpenRouter chat-completions API.
type OpenRouterClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	appURL     string
	title      string
	logger     *slog.Logger
}

// OpenRouterConfig holds configuration for the OpenRouter client.
type OpenRouterConfig struct {
	BaseURL string
	APIKey  string
	AppURL  string
	Title   string
	// Timeout bounds a whole round trip. Zero leaves it to the network stack.
	Timeout time.Duration
}

// NewOpenRouterClient creates a client for the chat-completions endpoint under cfg.BaseURL.
func NewOpenRouterClient(cfg OpenRouterConfig, logger *slog.Logger) (*OpenRouterClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errMissingAPIKey
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("openrouter: base URL not set")
	}

	return &OpenRouterClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		apiKey:     cfg.APIKey,
		appURL:     cfg.AppURL,
		title:      cfg.Title,
		logger:     logger,
	}, nil
}

// Complete sends req and returns choices[0].message.content.
// Non-2xx answers are reported as *UpstreamError; a 2xx answer without
// content yields ErrNoContent.
func (c *OpenRouterClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("openrouter: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openrouter: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.appURL != "" {
		httpReq.Header.Set("HTTP-Referer", c.appURL)
	}
	if c.title != "" {
		httpReq.Header.Set("X-Title", c.title)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openrouter: request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("openrouter: failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(errBody)),
		}
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("openrouter: decode response: %w", err)
	}

	c.logger.Debug("openrouter: completion received",
		"model", req.Model,
		"choices", len(parsed.Choices),
		"duration", time.Since(start),
	)

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ErrNoContent
	}
	return parsed.Choices[0].Message.Content, nil
}
