package ui

import (
	"io"
	"os"

	"github.com/aymanbagabas/go-osc52"
)

// OSC52Clipboard copies text through the terminal's OSC 52 escape sequence,
// which also works over SSH.
type OSC52Clipboard struct {
	out *osc52.Output
}

// NewOSC52Clipboard writes clipboard sequences to w.
func NewOSC52Clipboard(w io.Writer) *OSC52Clipboard {
	return &OSC52Clipboard{out: osc52.NewOutput(w, os.Environ())}
}

// Copy implements chat.Clipboard.
func (c *OSC52Clipboard) Copy(text string) error {
	c.out.Copy(text)
	return nil
}
