package runner

import (
	"context"

	"github.com/aretw0/toolguide/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents a guide response.
	Output(ctx context.Context, resp domain.Response) error

	// SystemOutput presents a meta-message that is not part of the guide flow.
	SystemOutput(ctx context.Context, msg string) error

	// Input reads the next answer or report.
	Input(ctx context.Context) (domain.Input, error)
}

// ContentRenderer is a function that transforms the content before outputting it.
// (e.g. Markdown rendering)
type ContentRenderer func(string) (string, error)
