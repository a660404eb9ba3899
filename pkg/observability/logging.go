package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/toolguide/pkg/domain"
)

// LoggingHooks logs every lifecycle event as a structured record.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	log := func(msg string) func(context.Context, *domain.TransitionEvent) {
		return func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, msg,
				"guide", e.Guide,
				"session_id", e.SessionID,
				"from", e.From,
				"to", e.To,
				"status", e.Status,
			)
		}
	}
	return domain.LifecycleHooks{
		OnSessionStart: log("session_start"),
		OnTransition:   log("transition"),
		OnSessionEnd:   log("session_end"),
	}
}
