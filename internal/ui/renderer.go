// Package ui renders a chat session in a terminal.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/ashureev/consolebot/internal/chat"
	"github.com/ashureev/consolebot/internal/domain"
	"github.com/charmbracelet/glamour"
)

// Color codes
const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
	colorGray  = "\033[90m"
	colorCyan  = "\033[36m"
)

const clearScreen = "\033[H\033[2J"

// TypingIndicator is shown below the last message while a reply is outstanding.
const TypingIndicator = "Waleed is typing..."

// Renderer turns session snapshots into terminal lines.
type Renderer struct {
	markdown *glamour.TermRenderer
	color    bool
}

// Options configures a Renderer.
type Options struct {
	Width int
	// Style is a glamour standard style name ("dark", "light", "notty").
	// Empty selects one from the terminal background.
	Style string
	Color bool
}

// NewRenderer creates a renderer that wraps markdown at opts.Width.
func NewRenderer(opts Options) (*Renderer, error) {
	width := opts.Width
	if width <= 20 {
		width = 80
	}

	styleOpt := glamour.WithAutoStyle()
	if opts.Style != "" {
		styleOpt = glamour.WithStandardStyle(opts.Style)
	}
	md, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width-4))
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return &Renderer{markdown: md, color: opts.Color}, nil
}

// Lines renders every message in order followed by the typing indicator
// when snap.Waiting is set. Message numbers start at 1.
func (r *Renderer) Lines(snap chat.Snapshot) []string {
	var lines []string
	for i, m := range snap.Messages {
		lines = append(lines, r.header(i+1, m))
		lines = append(lines, r.body(m)...)
		lines = append(lines, "")
	}
	if snap.Waiting {
		lines = append(lines, r.paint(colorGray, TypingIndicator))
	}
	return lines
}

func (r *Renderer) header(n int, m domain.Message) string {
	name, color := "Waleed", colorGreen
	if m.Role == domain.RoleUser {
		name, color = "You", colorBlue
	}
	stamp := m.Timestamp.Format("15:04")
	return r.paint(color, fmt.Sprintf("[%d] %s", n, name)) + " " + r.paint(colorGray, stamp)
}

func (r *Renderer) body(m domain.Message) []string {
	text := m.Content
	if m.Role == domain.RoleAssistant {
		if rendered, err := r.markdown.Render(m.Content); err == nil {
			text = rendered
		}
	} else {
		text = indent(text, "  ")
	}
	return strings.Split(strings.Trim(text, "\n"), "\n")
}

func (r *Renderer) paint(color, s string) string {
	if !r.color {
		return s
	}
	return color + s + colorReset
}

// Viewport returns the last height lines so the newest message stays visible.
func Viewport(lines []string, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	return lines[len(lines)-height:]
}

// Draw clears the screen and writes the bottom of the conversation, leaving
// reserved lines free for the prompt and notices.
func (r *Renderer) Draw(w io.Writer, snap chat.Snapshot, height, reserved int) error {
	view := Viewport(r.Lines(snap), height-reserved)

	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(r.paint(colorCyan, "Chat with Waleed") + r.paint(colorGray, "  /clear  /copy [n]  /exit") + "\n")
	for _, line := range view {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
