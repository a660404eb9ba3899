package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// IsInteractive reports whether stdout is a terminal. Piped output gets
// plain text.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// NewRenderer returns a function that renders markdown using glamour.
// Without a terminal, or when glamour cannot be initialized, content passes
// through unchanged.
func NewRenderer() func(string) (string, error) {
	if !IsInteractive() {
		return plain
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return plain
	}

	return func(markdown string) (string, error) {
		// Guide prompts use single newlines as line breaks.
		return r.Render(strings.ReplaceAll(markdown, "\n", "  \n"))
	}
}

func plain(s string) (string, error) {
	return s, nil
}
