package main

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/ashureev/consolebot/internal/chat"
	"github.com/ashureev/consolebot/internal/domain"
)

type blockingRelay struct {
	mu      sync.Mutex
	calls   int
	sent    []string
	reply   string
	release chan struct{}
}

func (r *blockingRelay) Reply(ctx context.Context, transcript []domain.Turn) (string, error) {
	r.mu.Lock()
	r.calls++
	r.sent = append(r.sent, transcript[len(transcript)-1].Content)
	release := r.release
	r.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return r.reply, nil
}

type noticeLog struct {
	mu      sync.Mutex
	notices []string
}

func (l *noticeLog) add(n string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notices = append(l.notices, n)
}

func (l *noticeLog) count(n string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := 0
	for _, got := range l.notices {
		if got == n {
			c++
		}
	}
	return c
}

type memClipboard struct {
	mu   sync.Mutex
	text string
}

func (c *memClipboard) Copy(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

func newTestREPL(relay chat.Relay, clip chat.Clipboard) (*repl, *noticeLog) {
	log := &noticeLog{}
	session := chat.NewSession(relay, chat.WithClipboard(clip), chat.OnNotice(log.add))
	return &repl{session: session, notify: log.add}, log
}

func TestREPLPastedLinesSendFirstOnly(t *testing.T) {
	relay := &blockingRelay{reply: "ok", release: make(chan struct{})}
	r, log := newTestREPL(relay, &memClipboard{})

	if err := r.serve(context.Background(), strings.NewReader("first\nsecond\nthird\n")); err != nil {
		t.Fatalf("serve: %v", err)
	}

	snap := r.session.Snapshot()
	if len(snap.Messages) != 2 || snap.Messages[1].Content != "first" {
		t.Fatalf("expected only first to be pending, got %+v", snap.Messages)
	}
	if got := log.count(busyNotice); got != 2 {
		t.Errorf("expected 2 busy notices, got %d", got)
	}

	close(relay.release)
	r.wait()

	snap = r.session.Snapshot()
	if len(snap.Messages) != 3 || snap.Messages[2].Content != "ok" {
		t.Fatalf("unexpected conversation: %+v", snap.Messages)
	}
	relay.mu.Lock()
	defer relay.mu.Unlock()
	if relay.calls != 1 || relay.sent[0] != "first" {
		t.Errorf("expected a single call sending first, got %d calls %v", relay.calls, relay.sent)
	}
}

func TestREPLCommands(t *testing.T) {
	relay := &blockingRelay{reply: "reply text"}
	clip := &memClipboard{}
	r, log := newTestREPL(relay, clip)
	ctx := context.Background()

	if !r.handle(ctx, "hello") {
		t.Fatal("expected to keep reading")
	}
	r.wait()

	r.handle(ctx, "/copy")
	if clip.text != "reply text" {
		t.Errorf("expected newest reply on clipboard, got %q", clip.text)
	}
	if log.count(chat.CopiedNotice) != 1 {
		t.Error("expected copied notice")
	}

	r.handle(ctx, "/copy 9")
	if log.count(errBadIndex.Error()) != 1 {
		t.Error("expected bad index notice")
	}

	r.handle(ctx, "/bogus")
	if log.count("Unknown command /bogus (try /clear, /copy [n], /exit)") != 1 {
		t.Error("expected unknown command notice")
	}

	r.handle(ctx, "/clear")
	if got := len(r.session.Snapshot().Messages); got != 1 {
		t.Errorf("expected greeting only after clear, got %d", got)
	}

	if r.handle(ctx, "/exit") || !r.exited {
		t.Error("expected /exit to stop the loop")
	}
}

func TestREPLServeStopsAtExit(t *testing.T) {
	relay := &blockingRelay{reply: "ok"}
	r, _ := newTestREPL(relay, &memClipboard{})

	if err := r.serve(context.Background(), strings.NewReader("/exit\nnever sent\n")); err != nil {
		t.Fatalf("serve: %v", err)
	}
	r.wait()

	if relay.calls != 0 {
		t.Errorf("expected no relay calls after /exit, got %d", relay.calls)
	}
}
