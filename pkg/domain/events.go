package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionStart EventType = "session_start"
	EventTransition   EventType = "transition"
	EventSessionEnd   EventType = "session_end"
)

// TransitionEvent describes a step taken by a guide.
// For EventSessionStart, From is START; for EventSessionEnd, To is the final state.
type TransitionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	Guide     string    `json:"guide"`
	From      StateName `json:"from"`
	To        StateName `json:"to"`
	Status    Status    `json:"status"`
}

// LifecycleHooks defines callbacks for runtime observability.
type LifecycleHooks struct {
	OnSessionStart func(context.Context, *TransitionEvent)
	OnTransition   func(context.Context, *TransitionEvent)
	OnSessionEnd   func(context.Context, *TransitionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnSessionStart: chain(h.OnSessionStart, other.OnSessionStart),
		OnTransition:   chain(h.OnTransition, other.OnTransition),
		OnSessionEnd:   chain(h.OnSessionEnd, other.OnSessionEnd),
	}
}

func chain(a, b func(context.Context, *TransitionEvent)) func(context.Context, *TransitionEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *TransitionEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
