package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ashureev/consolebot/internal/domain"
)

// errNoContent mirrors a relay answer without reply text.
var errNoContent = errors.New("No content received from AI") //nolint:staticcheck // shown to the user verbatim

// HTTPRelay posts transcripts to a relay server's /api/chat endpoint.
type HTTPRelay struct {
	endpoint string
	client   *http.Client
}

// NewHTTPRelay creates a relay client for the server at baseURL.
// A nil client uses http.DefaultClient.
func NewHTTPRelay(baseURL string, client *http.Client) *HTTPRelay {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRelay{
		endpoint: strings.TrimRight(baseURL, "/") + "/api/chat",
		client:   client,
	}
}

type relayRequest struct {
	Messages []domain.Turn `json:"messages"`
}

type relayResponse struct {
	Content string `json:"content"`
	Error   string `json:"error"`
}

// Reply implements Relay.
func (r *HTTPRelay) Reply(ctx context.Context, transcript []domain.Turn) (string, error) {
	if transcript == nil {
		transcript = []domain.Turn{}
	}
	body, err := json.Marshal(relayRequest{Messages: transcript})
	if err != nil {
		return "", fmt.Errorf("marshal transcript: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var data relayResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&data)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && data.Error != "" {
			return "", errors.New(data.Error)
		}
		return "", fmt.Errorf("HTTP error! status: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}
	if data.Content == "" {
		return "", errNoContent
	}
	return data.Content, nil
}

// Ensure HTTPRelay implements Relay.
var _ Relay = (*HTTPRelay)(nil)
