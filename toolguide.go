package toolguide

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/toolguide/internal/logging"
	"github.com/aretw0/toolguide/internal/runtime"
	"github.com/aretw0/toolguide/pkg/adapters/memory"
	"github.com/aretw0/toolguide/pkg/domain"
	"github.com/aretw0/toolguide/pkg/guides/pizza"
	"github.com/aretw0/toolguide/pkg/guides/triage"
	"github.com/aretw0/toolguide/pkg/ports"
	"github.com/aretw0/toolguide/pkg/session"
)

// Engine is the high-level entry point of the library.
// It wraps the internal runtime and the session manager.
type Engine struct {
	runtime  *runtime.Engine
	sessions *session.Manager

	store   ports.SessionStore
	locker  ports.DistributedLocker
	lockTTL time.Duration
	guides  []*domain.Guide
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	newID   func() string
	now     func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore sets the session store (default: in-memory).
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes steps of the same session across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLockTTL bounds how long a distributed session lock is held.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithGuides replaces the built-in guides.
func WithGuides(guides ...*domain.Guide) Option {
	return func(e *Engine) {
		e.guides = guides
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls add up.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithIDGenerator overrides session ID generation.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// WithClock overrides the time source used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// DefaultGuides returns the guides registered when WithGuides is not used.
func DefaultGuides() ([]*domain.Guide, error) {
	tri, err := triage.New()
	if err != nil {
		return nil, err
	}
	return []*domain.Guide{pizza.New(), tri}, nil
}

// New initializes an Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.guides == nil {
		guides, err := DefaultGuides()
		if err != nil {
			return nil, err
		}
		eng.guides = guides
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	if eng.lockTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithLockTTL(eng.lockTTL))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	eng.runtime = runtime.NewEngine(eng.sessions,
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithIDGenerator(eng.newID),
		runtime.WithClock(eng.now),
	)
	for _, g := range eng.guides {
		if err := eng.runtime.Register(g); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

// Start opens a session and returns the guide's first instruction.
func (e *Engine) Start(ctx context.Context, guide string) (domain.Response, error) {
	return e.runtime.Start(ctx, guide)
}

// Continue reports the agent's input for the session's current step.
func (e *Engine) Continue(ctx context.Context, guide, sessionID string, in domain.Input) (domain.Response, error) {
	return e.runtime.Continue(ctx, guide, sessionID, in)
}

// Get returns the public view of a session.
func (e *Engine) Get(ctx context.Context, guide, sessionID string) (map[string]any, bool, error) {
	return e.runtime.Get(ctx, guide, sessionID)
}

// Cancel discards a session.
func (e *Engine) Cancel(ctx context.Context, guide, sessionID string) (domain.Response, error) {
	return e.runtime.Cancel(ctx, guide, sessionID)
}

// Register adds a guide after construction.
func (e *Engine) Register(g *domain.Guide) error {
	return e.runtime.Register(g)
}

// Guide looks up a registered guide.
func (e *Engine) Guide(name string) (*domain.Guide, error) {
	return e.runtime.Guide(name)
}

// Guides returns the registered guides sorted by name.
func (e *Engine) Guides() []*domain.Guide {
	return e.runtime.Guides()
}

// Session loads a raw session regardless of its guide.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.runtime.Session(ctx, sessionID)
}

// Delete removes a session regardless of its guide.
func (e *Engine) Delete(ctx context.Context, sessionID string) error {
	return e.runtime.Delete(ctx, sessionID)
}

// List returns the IDs of every stored session.
func (e *Engine) List(ctx context.Context) ([]string, error) {
	return e.runtime.List(ctx)
}

// Store returns the session store backing the engine.
func (e *Engine) Store() ports.SessionStore {
	return e.store
}
