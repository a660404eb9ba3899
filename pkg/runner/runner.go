package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/toolguide/internal/logging"
	"github.com/aretw0/toolguide/pkg/domain"
)

// Engine is the subset of the guide engine the runner drives.
type Engine interface {
	Start(ctx context.Context, guide string) (domain.Response, error)
	Continue(ctx context.Context, guide, sessionID string, in domain.Input) (domain.Response, error)
	Cancel(ctx context.Context, guide, sessionID string) (domain.Response, error)
}

// Runner drives a guide session interactively until it reaches a final status.
type Runner struct {
	handler  IOHandler
	logger   *slog.Logger
	maxInput int
}

// Option configures the Runner.
type Option func(*Runner)

// WithInputHandler sets the IO strategy (default: TextHandler on stdio).
func WithInputHandler(h IOHandler) Option {
	return func(r *Runner) {
		r.handler = h
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMaxInputSize overrides the input size limit.
func WithMaxInputSize(limit int) Option {
	return func(r *Runner) {
		if limit > 0 {
			r.maxInput = limit
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger:   logging.NewNop(),
		maxInput: MaxInputSize(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run starts a new session of guide and loops until it ends.
func (r *Runner) Run(ctx context.Context, eng Engine, guide string) (domain.Response, error) {
	resp, err := eng.Start(ctx, guide)
	if err != nil {
		return domain.Response{}, fmt.Errorf("failed to start %s: %w", guide, err)
	}
	r.logger.Debug("Session started", "guide", guide, "session_id", resp.SessionID)
	return r.Resume(ctx, eng, guide, resp)
}

// Resume continues from resp, the last response of an open session.
// When input ends early (EOF, interrupt) the session is cancelled.
func (r *Runner) Resume(ctx context.Context, eng Engine, guide string, resp domain.Response) (domain.Response, error) {
	sessionID := resp.SessionID
	for {
		if err := r.handler.Output(ctx, resp); err != nil {
			return resp, err
		}
		if !awaitsInput(resp.Status) {
			return resp, nil
		}

		in, err := r.handler.Input(ctx)
		if err != nil {
			r.abandon(eng, guide, sessionID, err)
			return resp, err
		}

		if in.Report == nil {
			if in.Text == "" {
				_ = r.handler.SystemOutput(ctx, "Please provide a response.")
				continue
			}
			clean, err := SanitizeInputWithLimit(in.Text, r.maxInput)
			if err != nil {
				_ = r.handler.SystemOutput(ctx, fmt.Sprintf("Error: %v. Please try again.", err))
				continue
			}
			in.Text = clean
		} else {
			clean, err := SanitizeReport(in.Report, r.maxInput)
			if err != nil {
				_ = r.handler.SystemOutput(ctx, fmt.Sprintf("Error: %v. Please try again.", err))
				continue
			}
			in.Report = clean
		}

		next, err := eng.Continue(ctx, guide, sessionID, in)
		if err != nil {
			return resp, err
		}
		resp = next
	}
}

// abandon cancels the session after the input side went away.
// The parent context may already be done, so cancellation uses a fresh one.
func (r *Runner) abandon(eng Engine, guide, sessionID string, cause error) {
	if !errors.Is(cause, io.EOF) && !errors.Is(cause, context.Canceled) {
		return
	}
	if _, err := eng.Cancel(context.Background(), guide, sessionID); err != nil {
		r.logger.Warn("Failed to cancel abandoned session", "session_id", sessionID, "err", err)
		return
	}
	r.logger.Info("Session abandoned", "guide", guide, "session_id", sessionID, "cause", cause)
}

func awaitsInput(status domain.Status) bool {
	return status == domain.StatusInProgress || status == domain.StatusEmergencySaveRequired
}
