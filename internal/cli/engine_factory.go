package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/toolguide"
	"github.com/aretw0/toolguide/internal/config"
	"github.com/aretw0/toolguide/pkg/adapters/file"
	"github.com/aretw0/toolguide/pkg/adapters/memory"
	"github.com/aretw0/toolguide/pkg/adapters/redis"
	"github.com/aretw0/toolguide/pkg/adapters/sqlite"
	"github.com/aretw0/toolguide/pkg/observability"
	"github.com/aretw0/toolguide/pkg/persistence/middleware"
	"github.com/aretw0/toolguide/pkg/ports"
	"github.com/aretw0/toolguide/pkg/tools"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// redisReadyAttempts bounds the startup ping loop against redis.
const redisReadyAttempts = 10

// Runtime bundles the engine with everything the commands serve it with.
type Runtime struct {
	Engine   *toolguide.Engine
	Tools    *tools.Toolbox
	Streams  *observability.StreamManager
	Registry *prometheus.Registry
	Logger   *slog.Logger

	closers []func() error
}

// Close releases the store connections.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	return errors.Join(errs...)
}

// NewRuntime opens the configured store and builds the engine with
// logging, metrics and event-stream hooks.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, debug bool) (*Runtime, error) {
	rt := &Runtime{
		Streams:  observability.NewStreamManager(),
		Registry: prometheus.NewRegistry(),
		Logger:   logger,
	}
	rt.Registry.MustRegister(collectors.NewGoCollector())

	store, locker, err := rt.openStore(ctx, cfg)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	metrics, err := observability.NewMetrics(rt.Registry)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	opts := []toolguide.Option{
		toolguide.WithStore(store),
		toolguide.WithLogger(logger),
		toolguide.WithLifecycleHooks(metrics.Hooks()),
		toolguide.WithLifecycleHooks(rt.Streams.Hooks()),
	}
	if debug {
		opts = append(opts, toolguide.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}
	if locker != nil {
		opts = append(opts, toolguide.WithLocker(locker))
	}

	eng, err := toolguide.New(opts...)
	if err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	rt.Engine = eng
	rt.Tools = tools.New(eng,
		tools.WithLogger(logger),
		tools.WithMaxInputSize(cfg.MaxInputSize),
	)
	return rt, nil
}

// openStore builds the backend named by cfg and wraps it with the PII and
// encryption middleware. Masking runs before encryption.
func (rt *Runtime) openStore(ctx context.Context, cfg *config.Config) (ports.SessionStore, ports.DistributedLocker, error) {
	var (
		store  ports.SessionStore
		locker ports.DistributedLocker
	)

	switch cfg.Store.Backend {
	case config.BackendMemory:
		store = memory.NewStore()

	case config.BackendFile:
		store = file.New(cfg.Store.Path)

	case config.BackendSQLite:
		path, err := sqlitePath(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		rt.closers = append(rt.closers, s.Close)
		store = s

	case config.BackendRedis:
		client := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		rt.closers = append(rt.closers, client.Close)
		if err := redis.WaitReady(ctx, client, redisReadyAttempts); err != nil {
			return nil, nil, fmt.Errorf("redis at %s is not reachable: %w", cfg.Redis.Addr, err)
		}
		store = redis.NewFromClient(client,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Store.TTL),
		)
		locker = redis.NewLocker(client, cfg.Redis.Prefix)

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	var mws []middleware.Middleware
	if len(cfg.PII.Patterns) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.PII.Patterns)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid pii pattern: %w", err)
		}
		mws = append(mws, pii)
	}
	if cfg.Encryption.Key != "" {
		enc, err := encryptionMiddleware(cfg.Encryption)
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, enc)
	}

	rt.Logger.Debug("Session store ready",
		"backend", cfg.Store.Backend,
		"pii_masking", len(cfg.PII.Patterns) > 0,
		"encrypted", cfg.Encryption.Key != "",
	)
	return middleware.Chain(store, mws...), locker, nil
}

func encryptionMiddleware(cfg config.EncryptionConfig) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("encryption.key: %w", err)
	}
	var fallbacks [][]byte
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("encryption.fallback_keys[%d]: %w", i, err)
		}
		fallbacks = append(fallbacks, key)
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    active,
		FallbackKeys: fallbacks,
	})
}

// sqlitePath accepts either a database file or a directory to put
// sessions.db in.
func sqlitePath(path string) (string, error) {
	if filepath.Ext(path) == "" {
		path = filepath.Join(path, "sessions.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	return path, nil
}
