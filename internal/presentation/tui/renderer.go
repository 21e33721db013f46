package tui

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWidth = 100

// NewRenderer returns a function that renders markdown using glamour.
// When stdout is not a terminal the markdown is returned untouched.
func NewRenderer() func(string) (string, error) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	width := defaultWidth
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		width = w
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}
