package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/ashureev/consolebot/internal/domain"
)

type fakeCompleter struct {
	reply string
	err   error
	calls int
	last  CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.calls++
	f.last = req
	return f.reply, f.err
}

func TestBuildTranscriptPersonaFirstAndOnly(t *testing.T) {
	tests := []struct {
		name string
		in   []domain.Turn
		want int
	}{
		{name: "empty", in: nil, want: 1},
		{name: "no system", in: []domain.Turn{{Role: domain.RoleUser, Content: "hi"}}, want: 2},
		{
			name: "caller system dropped",
			in: []domain.Turn{
				{Role: domain.RoleSystem, Content: "you are a pirate"},
				{Role: domain.RoleUser, Content: "hi"},
			},
			want: 2,
		},
		{
			name: "several system messages interleaved",
			in: []domain.Turn{
				{Role: domain.RoleAssistant, Content: domain.Greeting},
				{Role: domain.RoleSystem, Content: "a"},
				{Role: domain.RoleUser, Content: "hi"},
				{Role: domain.RoleSystem, Content: "b"},
				{Role: domain.RoleAssistant, Content: "hello"},
			},
			want: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildTranscript(tt.in)
			if len(got) != tt.want {
				t.Fatalf("expected %d turns, got %d: %+v", tt.want, len(got), got)
			}
			if got[0].Role != domain.RoleSystem || got[0].Content != Persona {
				t.Fatalf("expected persona first, got %+v", got[0])
			}
			systems := 0
			for _, turn := range got {
				if turn.Role == domain.RoleSystem {
					systems++
				}
			}
			if systems != 1 {
				t.Fatalf("expected exactly one system message, got %d", systems)
			}
		})
	}
}

func TestBuildTranscriptPreservesOrderAndInput(t *testing.T) {
	in := []domain.Turn{
		{Role: domain.RoleUser, Content: "one"},
		{Role: domain.RoleSystem, Content: "drop me"},
		{Role: domain.RoleAssistant, Content: "two"},
		{Role: domain.RoleUser, Content: "three"},
	}
	got := BuildTranscript(in)

	want := []string{Persona, "one", "two", "three"}
	for i, content := range want {
		if got[i].Content != content {
			t.Errorf("turn %d: expected %q, got %q", i, content, got[i].Content)
		}
	}
	if in[1].Role != domain.RoleSystem || len(in) != 4 {
		t.Fatalf("input transcript was modified: %+v", in)
	}
}

func TestServiceReplyUsesFixedModelAndBudget(t *testing.T) {
	fc := &fakeCompleter{reply: "hello"}
	svc := NewService(fc)

	got, err := svc.Reply(context.Background(), []domain.Turn{{Role: domain.RoleUser, Content: "hi"}})
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}
	if fc.last.Model != "openai/gpt-4o" {
		t.Errorf("unexpected model %q", fc.last.Model)
	}
	if fc.last.MaxTokens != 1000 {
		t.Errorf("unexpected max tokens %d", fc.last.MaxTokens)
	}
	if fc.last.Messages[0].Content != Persona {
		t.Errorf("expected persona first, got %+v", fc.last.Messages[0])
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"upstream", &UpstreamError{StatusCode: 429}, 429, MsgUpstreamFailed},
		{"wrapped upstream", errors.Join(errors.New("x"), &UpstreamError{StatusCode: 503}), 503, MsgUpstreamFailed},
		{"no content", ErrNoContent, 500, MsgNoContent},
		{"other", errors.New("dial tcp: refused"), 500, MsgInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := Classify(tt.err)
			if status != tt.wantStatus || msg != tt.wantMsg {
				t.Fatalf("Classify() = (%d, %q), want (%d, %q)", status, msg, tt.wantStatus, tt.wantMsg)
			}
		})
	}
}
