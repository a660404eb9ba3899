package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/toolguide/internal/logging"
	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/session"
	"github.com/google/uuid"
)

// maxIDAttempts bounds retries when a generated session ID collides.
const maxIDAttempts = 3

// Engine is the guide runner. It owns the guide registry and drives every
// session through its guide's handlers under the session lock.
type Engine struct {
	mu     sync.RWMutex
	guides map[string]*domain.Guide

	sessions *session.Manager
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithIDGenerator overrides session ID generation.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithClock overrides the time source used for session timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewSessionID returns the first 8 hex characters of a random UUID.
func NewSessionID() string {
	return uuid.NewString()[:8]
}

// NewEngine creates an engine backed by the given session manager.
func NewEngine(sessions *session.Manager, opts ...EngineOption) *Engine {
	e := &Engine{
		guides:   make(map[string]*domain.Guide),
		sessions: sessions,
		logger:   logging.NewNop(),
		newID:    NewSessionID,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register validates and adds a guide. Registering a name twice replaces the guide.
func (e *Engine) Register(g *domain.Guide) error {
	if g == nil {
		return fmt.Errorf("%w: nil guide", domain.ErrInvalidGuide)
	}
	if err := g.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.guides[g.Name] = g
	return nil
}

// Guide looks up a registered guide.
func (e *Engine) Guide(name string) (*domain.Guide, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	g, ok := e.guides[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownGuide, name)
	}
	return g, nil
}

// Guides returns the registered guides sorted by name.
func (e *Engine) Guides() []*domain.Guide {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*domain.Guide, 0, len(e.guides))
	for _, g := range e.guides {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start opens a new session for the guide and returns its first instruction.
func (e *Engine) Start(ctx context.Context, guideName string) (domain.Response, error) {
	g, err := e.Guide(guideName)
	if err != nil {
		return domain.Response{}, err
	}

	for attempt := 1; ; attempt++ {
		now := e.now()
		s := domain.NewSession(e.newID(), g.Name, now)
		s.State = g.Initial

		resp := g.Begin(ctx, s)
		if s.State != g.Initial && !g.Allows(g.Initial, s.State) {
			return domain.Response{}, fmt.Errorf("%w: %s %s -> %s", domain.ErrIllegalTransition, g.Name, g.Initial, s.State)
		}
		resp.SessionID = s.ID
		s.UpdatedAt = now

		err := e.sessions.Create(ctx, s)
		if errors.Is(err, domain.ErrSessionExists) && attempt < maxIDAttempts {
			e.logger.Warn("Session ID collision, regenerating", "session_id", s.ID)
			continue
		}
		if err != nil {
			return domain.Response{}, fmt.Errorf("failed to create session: %w", err)
		}

		e.logger.Info("Session started", "guide", g.Name, "session_id", s.ID, "state", s.State)
		e.fire(ctx, e.hooks.OnSessionStart, &domain.TransitionEvent{
			Timestamp: now,
			Type:      domain.EventSessionStart,
			SessionID: s.ID,
			Guide:     g.Name,
			From:      domain.StateStart,
			To:        s.State,
			Status:    resp.Status,
		})
		return resp, nil
	}
}

// Continue feeds the agent's input to the handler of the session's current state.
//
// Protocol failures (unknown session, unknown state, unrecognized input) are
// returned as payloads. A non-nil error means the store or a handler failed.
func (e *Engine) Continue(ctx context.Context, guideName, sessionID string, in domain.Input) (domain.Response, error) {
	g, err := e.Guide(guideName)
	if err != nil {
		return domain.Response{}, err
	}

	var (
		resp   domain.Response
		events []*domain.TransitionEvent
	)

	err = e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		store := e.sessions.Store()
		s, err := e.load(ctx, g, sessionID)
		if err != nil {
			return err
		}
		if s == nil {
			resp = domain.ErrorResponse("Session %s not found. Please start a new %s.", sessionID, g.Noun)
			return nil
		}

		handler, ok := g.Handlers[s.State]
		if !ok {
			resp = domain.ErrorResponse("Unknown state: %s", s.State)
			return nil
		}

		from := s.State
		resp, err = handler(ctx, s, in)
		if err != nil {
			return fmt.Errorf("handler %s/%s failed: %w", g.Name, from, err)
		}
		if s.State != from && !g.Allows(from, s.State) {
			return fmt.Errorf("%w: %s %s -> %s", domain.ErrIllegalTransition, g.Name, from, s.State)
		}
		resp.SessionID = s.ID

		now := e.now()
		s.UpdatedAt = now

		if resp.Status == domain.StatusCancelled {
			if err := store.Delete(ctx, s.ID); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}
		} else if err := store.Save(ctx, s); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}

		if s.State != from {
			events = append(events, &domain.TransitionEvent{
				Timestamp: now,
				Type:      domain.EventTransition,
				SessionID: s.ID,
				Guide:     g.Name,
				From:      from,
				To:        s.State,
				Status:    resp.Status,
			})
		}
		if resp.Status.Final() {
			events = append(events, &domain.TransitionEvent{
				Timestamp: now,
				Type:      domain.EventSessionEnd,
				SessionID: s.ID,
				Guide:     g.Name,
				From:      from,
				To:        s.State,
				Status:    resp.Status,
			})
		}
		return nil
	})
	if err != nil {
		e.logger.Error("Step failed", "guide", g.Name, "session_id", sessionID, "err", err)
		return domain.Response{}, err
	}

	// Hooks run outside the session lock.
	for _, ev := range events {
		switch ev.Type {
		case domain.EventTransition:
			e.logger.Debug("Transition", "guide", ev.Guide, "session_id", ev.SessionID, "from", ev.From, "to", ev.To)
			e.fire(ctx, e.hooks.OnTransition, ev)
		case domain.EventSessionEnd:
			e.logger.Info("Session ended", "guide", ev.Guide, "session_id", ev.SessionID, "status", ev.Status)
			e.fire(ctx, e.hooks.OnSessionEnd, ev)
		}
	}
	return resp, nil
}

// Get returns the public view of a session, or found=false when the guide
// does not own a session with that ID.
func (e *Engine) Get(ctx context.Context, guideName, sessionID string) (map[string]any, bool, error) {
	g, err := e.Guide(guideName)
	if err != nil {
		return nil, false, err
	}
	var view map[string]any
	err = e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := e.load(ctx, g, sessionID)
		if err != nil || s == nil {
			return err
		}
		view = g.View(s)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return view, view != nil, nil
}

// Cancel discards a session on request.
func (e *Engine) Cancel(ctx context.Context, guideName, sessionID string) (domain.Response, error) {
	g, err := e.Guide(guideName)
	if err != nil {
		return domain.Response{}, err
	}

	var (
		resp  domain.Response
		ended *domain.TransitionEvent
	)
	err = e.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := e.load(ctx, g, sessionID)
		if err != nil {
			return err
		}
		if s == nil {
			resp = domain.ErrorResponse("Session %s not found.", sessionID)
			return nil
		}
		if err := e.sessions.Store().Delete(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		resp = domain.Response{Status: domain.StatusCancelled, Message: g.CancelMessage}
		ended = &domain.TransitionEvent{
			Timestamp: e.now(),
			Type:      domain.EventSessionEnd,
			SessionID: s.ID,
			Guide:     g.Name,
			From:      s.State,
			To:        domain.StateCancelled,
			Status:    domain.StatusCancelled,
		}
		return nil
	})
	if err != nil {
		return domain.Response{}, err
	}
	if ended != nil {
		e.logger.Info("Session cancelled", "guide", g.Name, "session_id", sessionID)
		e.fire(ctx, e.hooks.OnSessionEnd, ended)
	}
	return resp, nil
}

// Session loads the raw session regardless of guide (operator tooling).
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.Load(ctx, sessionID)
}

// Delete removes a session regardless of guide (operator tooling).
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// List returns the IDs of every stored session.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// load must run under the session lock. It returns (nil, nil) when the
// session is missing or belongs to another guide.
func (e *Engine) load(ctx context.Context, g *domain.Guide, sessionID string) (*domain.Session, error) {
	s, err := e.sessions.Store().Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if s.Guide != g.Name {
		return nil, nil
	}
	return s, nil
}

func (e *Engine) fire(ctx context.Context, hook func(context.Context, *domain.TransitionEvent), ev *domain.TransitionEvent) {
	if hook != nil {
		hook(ctx, ev)
	}
}
