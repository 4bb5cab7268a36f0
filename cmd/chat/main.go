// ConsoleBot - terminal chat client
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ashureev/consolebot/internal/chat"
	"github.com/ashureev/consolebot/internal/config"
	"github.com/ashureev/consolebot/internal/ui"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

// reservedLines keeps room under the conversation for the notice and prompt.
const reservedLines = 3

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	_ = godotenv.Load()

	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintln(os.Stderr, "chat:", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "chat:", err)
		os.Exit(1)
	}
}

func run(cfg *config.ClientConfig) error {
	fd := int(os.Stdout.Fd())
	tty := term.IsTerminal(fd)

	width := 80
	if tty {
		if w, _, err := term.GetSize(fd); err == nil {
			width = w
		}
	}
	style := ""
	if !tty {
		style = "notty"
	}
	renderer, err := ui.NewRenderer(ui.Options{Width: width, Style: style, Color: tty})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	screen := &screen{out: os.Stdout, fd: fd, tty: tty, renderer: renderer}
	relay := chat.NewHTTPRelay(cfg.ServerURL, &http.Client{Timeout: cfg.Timeout})
	session := chat.NewSession(relay,
		chat.WithClipboard(ui.NewOSC52Clipboard(screen)),
		chat.OnChange(screen.draw),
		chat.OnNotice(screen.notify),
	)
	screen.snapshot = session.Snapshot
	screen.draw(session.Snapshot())

	r := &repl{session: session, notify: screen.notify}
	err = r.serve(ctx, os.Stdin)
	if r.exited {
		stop()
	}
	r.wait()
	return err
}

// screen serializes redraws of the conversation, notice line and prompt.
type screen struct {
	mu       sync.Mutex
	out      io.Writer
	fd       int
	tty      bool
	renderer *ui.Renderer
	snapshot func() chat.Snapshot
	notice   string
}

func (s *screen) draw(snap chat.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawLocked(snap)
}

func (s *screen) notify(notice string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = notice
	if s.snapshot != nil {
		s.drawLocked(s.snapshot())
	}
	s.notice = ""
}

// Write sends raw terminal output, such as clipboard escape sequences,
// without interleaving it with a redraw.
func (s *screen) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Write(p)
}

func (s *screen) drawLocked(snap chat.Snapshot) {
	height := 24
	if s.tty {
		if _, h, err := term.GetSize(s.fd); err == nil {
			height = h
		}
	}
	if err := s.renderer.Draw(s.out, snap, height, reservedLines); err != nil {
		slog.Warn("redraw failed", "error", err)
		return
	}
	if s.notice != "" {
		fmt.Fprintln(s.out, s.notice)
	}
	fmt.Fprint(s.out, "> ")
}
