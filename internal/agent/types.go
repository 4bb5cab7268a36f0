// Package agent implements the relay between chat clients and the upstream
// chat-completion provider.
package agent

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ashureev/consolebot/internal/domain"
)

const (
	// Persona is the system instruction injected in front of every transcript.
	Persona = "YOU ARE MY FRIEND AND YOUR NAME IS WALEED."
	// Model is the upstream model identifier.
	Model = "openai/gpt-4o"
	// MaxTokens caps the length of each completion.
	MaxTokens = 1000
)

// Client-facing error messages.
const (
	MsgUpstreamFailed  = "Failed to get response from AI"
	MsgNoContent       = "No response content received"
	MsgInternal        = "Internal server error"
	MsgMissingMessages = "messages is required"
	MsgInvalidRole     = "invalid message role"
	MsgBodyTooLarge    = "request body too large"
)

// ErrNoContent is returned when the upstream answered 2xx without a reply.
var ErrNoContent = errors.New("no response content received")

// UpstreamError reports a non-2xx answer from the provider.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// ChatRequest is the body accepted by POST /api/chat.
type ChatRequest struct {
	Messages []domain.Turn `json:"messages"`
}

// ChatResponse is the success body of POST /api/chat.
type ChatResponse struct {
	Content string `json:"content"`
}

// CompletionRequest is the body sent to the provider.
type CompletionRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []domain.Turn `json:"messages"`
}

// completionResponse is the subset of the provider response we read.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify maps a relay error to the HTTP status and the message shown to clients.
func Classify(err error) (int, string) {
	var upstreamErr *UpstreamError
	switch {
	case errors.As(err, &upstreamErr):
		return upstreamErr.StatusCode, MsgUpstreamFailed
	case errors.Is(err, ErrNoContent):
		return http.StatusInternalServerError, MsgNoContent
	default:
		return http.StatusInternalServerError, MsgInternal
	}
}
