package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner and a subtitle to w.
func PrintBanner(w io.Writer, subtitle string) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Indigo/Violet)
	lines := []struct {
		text  string
		color string
	}{
		{"  _              _             _     _      ", "#818cf8"},
		{" | |_ ___   ___ | | __ _ _   _(_) __| | ___ ", "#a78bfa"},
		{" | __/ _ \\ / _ \\| |/ _` | | | | |/ _` |/ _ \\", "#c084fc"},
		{" | || (_) | (_) | | (_| | |_| | | (_| |  __/", "#e879f9"},
		{"  \\__\\___/ \\___/|_|\\__, |\\__,_|_|\\__,_|\\___|", "#f472b6"},
		{"                   |___/                    ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if subtitle != "" {
		fmt.Fprintln(w, termenv.String(" "+subtitle).Faint())
	}
	fmt.Fprintln(w)
}
