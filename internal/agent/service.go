package agent

import (
	"context"

	"github.com/ashureev/consolebot/internal/domain"
)

// Service relays transcripts to the provider behind the fixed persona.
type Service struct {
	completer Completer
}

// NewService creates a relay service backed by completer.
func NewService(completer Completer) *Service {
	return &Service{completer: completer}
}

// Reply sends transcript upstream and returns the assistant's reply.
// Caller-supplied system messages are dropped and the persona is always first.
func (s *Service) Reply(ctx context.Context, transcript []domain.Turn) (string, error) {
	return s.completer.Complete(ctx, CompletionRequest{
		Model:     Model,
		MaxTokens: MaxTokens,
		Messages:  BuildTranscript(transcript),
	})
}

// BuildTranscript returns a new slice holding the persona followed by every
// non-system turn of in, in order. in is not modified.
func BuildTranscript(in []domain.Turn) []domain.Turn {
	out := make([]domain.Turn, 0, len(in)+1)
	out = append(out, domain.Turn{Role: domain.RoleSystem, Content: Persona})
	for _, t := range in {
		if t.Role == domain.RoleSystem {
			continue
		}
		out = append(out, t)
	}
	return out
}
