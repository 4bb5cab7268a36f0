// Package chat implements the client-side conversation: an in-memory message
// list, a draft, and a single in-flight round trip to the relay.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/consolebot/internal/domain"
	"github.com/google/uuid"
)

var (
	// ErrEmptyDraft is returned by Submit and Begin for blank input.
	ErrEmptyDraft = errors.New("chat: draft is empty")
	// ErrBusy is returned by Submit and Begin while a reply is outstanding.
	ErrBusy = errors.New("chat: waiting for a reply")
	// ErrUnknownMessage is returned by Copy for an id not in the conversation.
	ErrUnknownMessage = errors.New("chat: unknown message")
)

// CopiedNotice is the confirmation emitted after a copy.
const CopiedNotice = "Message copied to clipboard"

// Relay sends a transcript to the relay endpoint and returns the reply text.
type Relay interface {
	Reply(ctx context.Context, transcript []domain.Turn) (string, error)
}

// Clipboard receives copied message content.
type Clipboard interface {
	Copy(text string) error
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	Messages []domain.Message `json:"messages"`
	Draft    string           `json:"draft"`
	Waiting  bool             `json:"waiting"`
}

// Session holds one view's conversation. It is safe for concurrent use.
//
// Change and notice observers run synchronously, in order, and may call
// Snapshot but must not call any method that modifies the session.
type Session struct {
	relay     Relay
	clipboard Clipboard
	now       func() time.Time
	newID     func() string
	onChange  func(Snapshot)
	onNotice  func(string)

	emitMu sync.Mutex // orders observer calls
	mu     sync.Mutex
	conv   *domain.Conversation
	draft  string
	wait   bool
}

// Option configures a Session.
type Option func(*Session)

// WithClipboard sets the clipboard used by Copy.
func WithClipboard(c Clipboard) Option {
	return func(s *Session) { s.clipboard = c }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator overrides the message id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

// OnChange registers fn to receive a snapshot whenever messages, draft or
// the waiting flag change. Renderers use it to redraw and scroll to the end.
func OnChange(fn func(Snapshot)) Option {
	return func(s *Session) { s.onChange = fn }
}

// OnNotice registers fn to receive transient notices such as CopiedNotice.
func OnNotice(fn func(string)) Option {
	return func(s *Session) { s.onNotice = fn }
}

// NewSession creates a session seeded with the greeting.
func NewSession(relay Relay, opts ...Option) *Session {
	s := &Session{
		relay: relay,
		now:   time.Now,
		newID: newMessageID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.conv = domain.NewConversation(s.now())
	return s
}

// newMessageID returns a time-ordered UUIDv7 string.
func newMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Messages: s.conv.Messages(),
		Draft:    s.draft,
		Waiting:  s.wait,
	}
}

// Draft returns the unsent input.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Waiting reports whether a reply is outstanding.
func (s *Session) Waiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wait
}

// SetDraft replaces the unsent input.
func (s *Session) SetDraft(text string) {
	s.mutate(func() bool {
		if s.draft == text {
			return false
		}
		s.draft = text
		return true
	})
}

// Submit sends the draft as a user message and blocks until the reply has
// been appended. It returns ErrEmptyDraft for a blank draft and ErrBusy while
// another submission is outstanding; neither touches the conversation.
//
// A relay failure is appended as an assistant error message and also returned.
func (s *Session) Submit(ctx context.Context) error {
	p, err := s.begin("", true)
	if err != nil {
		return err
	}
	return p.Run(ctx)
}

// Begin appends text as a user message and marks the session as waiting in
// one step, so concurrent callers cannot interleave. The round trip is left
// to the returned Pending. Rejections match Submit and leave the draft alone;
// on success the draft is cleared.
func (s *Session) Begin(text string) (*Pending, error) {
	return s.begin(text, false)
}

// BeginDraft is Begin with the current draft as the text.
func (s *Session) BeginDraft() (*Pending, error) {
	return s.begin("", true)
}

func (s *Session) begin(text string, fromDraft bool) (*Pending, error) {
	var transcript []domain.Turn
	var rejected error
	s.mutate(func() bool {
		if s.wait {
			rejected = ErrBusy
			return false
		}
		if fromDraft {
			text = s.draft
		}
		content := strings.TrimSpace(text)
		if content == "" {
			rejected = ErrEmptyDraft
			return false
		}
		s.conv.Append(domain.Message{
			ID:        s.newID(),
			Content:   content,
			Role:      domain.RoleUser,
			Timestamp: s.now(),
		})
		transcript = s.conv.Transcript()
		s.draft = ""
		s.wait = true
		return true
	})
	if rejected != nil {
		return nil, rejected
	}
	return &Pending{s: s, transcript: transcript}, nil
}

// Pending is a submission whose user message is in the conversation and
// whose reply is outstanding.
type Pending struct {
	s          *Session
	transcript []domain.Turn
}

// Run performs the round trip and appends the reply, or the error message
// when the relay fails, then clears the waiting flag. Run must be called
// exactly once.
func (p *Pending) Run(ctx context.Context) error {
	s := p.s
	reply, err := s.relay.Reply(ctx, p.transcript)
	if err != nil {
		slog.Warn("chat: relay round trip failed", "error", err)
		reply = ErrorReply(err)
	}

	s.mutate(func() bool {
		s.conv.Append(domain.Message{
			ID:        s.newID(),
			Content:   reply,
			Role:      domain.RoleAssistant,
			Timestamp: s.now(),
		})
		s.wait = false
		return true
	})
	return err
}

// ErrorReply formats a failed round trip as assistant message content.
func ErrorReply(err error) string {
	msg := "Unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return fmt.Sprintf("Sorry, I encountered an error: %s. Please try again.", msg)
}

// Copy puts the content of message id on the clipboard and emits CopiedNotice.
// Clipboard failures are ignored.
func (s *Session) Copy(id string) error {
	s.mu.Lock()
	m, ok := s.conv.Find(id)
	s.mu.Unlock()
	if !ok {
		return ErrUnknownMessage
	}

	if s.clipboard != nil {
		if err := s.clipboard.Copy(m.Content); err != nil {
			slog.Debug("chat: clipboard write failed", "error", err)
		}
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if s.onNotice != nil {
		s.onNotice(CopiedNotice)
	}
	return nil
}

// Clear resets the conversation to the seed greeting. The draft and the
// waiting flag are left alone.
func (s *Session) Clear() {
	s.mutate(func() bool {
		s.conv.Reset(s.now())
		return true
	})
}

// mutate applies fn under the state lock and, if fn reports a change,
// delivers the resulting snapshot to the change observer.
func (s *Session) mutate(fn func() bool) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	changed := fn()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if changed && s.onChange != nil {
		s.onChange(snap)
	}
}
