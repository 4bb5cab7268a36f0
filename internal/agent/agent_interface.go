package agent

import (
	"context"

	"github.com/ashureev/consolebot/internal/domain"
)

// Completer sends a prepared transcript to a chat-completion provider and
// returns the first choice's content.
// This interface is implemented by the OpenRouter client.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// UsageRecorder stores relay usage metadata.
type UsageRecorder interface {
	RecordExchange(ctx context.Context, ex *domain.Exchange) error
}

// Ensure OpenRouterClient implements Completer.
var _ Completer = (*OpenRouterClient)(nil)
