package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/scorm/internal/adapters/file"
	redisstore "github.com/aretw0/scorm/internal/adapters/redis"
	"github.com/aretw0/scorm/internal/adapters/sqlite"
	"github.com/aretw0/scorm/internal/config"
	"github.com/aretw0/scorm/pkg/adapters/memory"
	redislock "github.com/aretw0/scorm/pkg/adapters/redis"
	"github.com/aretw0/scorm/pkg/domain"
	"github.com/aretw0/scorm/pkg/observability"
	"github.com/aretw0/scorm/pkg/persistence/middleware"
	"github.com/aretw0/scorm/pkg/ports"
	"github.com/aretw0/scorm/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	backend "github.com/redis/go-redis/v9"
)

// Runtime is the wired host: attempt store, session manager and metrics.
type Runtime struct {
	Config   config.Config
	Store    ports.AttemptStore
	Manager  *session.Manager
	Metrics  *observability.Metrics
	Registry *prometheus.Registry
	Logger   *slog.Logger

	ping    func(ctx context.Context) error
	closers []func() error
}

// Build wires a Runtime from cfg. Callers must Close it.
func Build(cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Logger: logger}

	base, client, err := rt.openStore()
	if err != nil {
		rt.Close()
		return nil, err
	}

	mws, err := storeMiddlewares(cfg.Security)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Store = middleware.Chain(base, mws...)

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithLockTTL(cfg.Session.LockTTL),
		session.WithHookTimeout(cfg.Session.HookTimeout),
	}

	if cfg.Session.DistributedLock {
		if client == nil {
			client = backend.NewClient(&backend.Options{
				Addr:     cfg.Store.Redis.Addr,
				Password: cfg.Store.Redis.Password,
				DB:       cfg.Store.Redis.DB,
			})
			rt.closers = append(rt.closers, client.Close)
		}
		opts = append(opts, session.WithLocker(redislock.NewLocker(client, cfg.Store.Redis.Prefix)))
	}

	observer := createDebugHooks(logger)
	if cfg.Server.Metrics {
		rt.Registry = prometheus.NewRegistry()
		rt.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		rt.Metrics, err = observability.NewMetrics(rt.Registry)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		observer = observability.Combine(observer, rt.Metrics.Hooks())
	}
	opts = append(opts, session.WithObserver(observer))

	rt.Manager = session.NewManager(rt.Store, opts...)
	if rt.Registry != nil {
		if err := observability.RegisterActiveSessions(rt.Registry, rt.Manager.Active); err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	logger.Debug("runtime ready",
		"driver", cfg.Store.Driver,
		"encrypted", cfg.Security.EncryptionKey != "",
		"mask_pii", cfg.Security.MaskPII,
		"distributed_lock", cfg.Session.DistributedLock,
	)
	return rt, nil
}

// openStore returns the configured driver and, for redis, its client.
func (rt *Runtime) openStore() (ports.AttemptStore, *backend.Client, error) {
	cfg := rt.Config.Store
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStore(), nil, nil
	case config.DriverFile:
		return file.New(cfg.Path), nil, nil
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		rt.ping = s.Ping
		rt.closers = append(rt.closers, s.Close)
		return s, nil, nil
	case config.DriverRedis:
		s := redisstore.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisstore.WithPrefix(cfg.Redis.Prefix),
			redisstore.WithTTL(cfg.Redis.TTL),
		)
		rt.ping = s.Ping
		rt.closers = append(rt.closers, s.Close)
		return s, s.Client(), nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalid, cfg.Driver)
	}
}

// storeMiddlewares masks PII before encrypting, so the ciphertext never holds the raw values.
func storeMiddlewares(sec config.SecurityConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if sec.MaskPII {
		patterns := sec.PIIKeys
		if len(patterns) == 0 {
			patterns = middleware.DefaultPIIPatterns
		}
		mws = append(mws, middleware.NewPIIMiddleware(patterns))
	}
	if sec.EncryptionKey != "" {
		active, fallback, err := sec.Keys()
		if err != nil {
			return nil, err
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	return mws, nil
}

// Ping checks the store backend. Stores without a connection always succeed.
func (rt *Runtime) Ping(ctx context.Context) error {
	if rt.ping == nil {
		return nil
	}
	return rt.ping(ctx)
}

// Close releases store connections.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

func createDebugHooks(logger *slog.Logger) domain.Hooks {
	return domain.Hooks{
		OnCall: func(ev domain.CallEvent) {
			logger.Debug("SCORM call",
				"method", ev.Method,
				"element", ev.Element,
				"code", ev.Code.String(),
			)
		},
		OnHook: func(ev domain.HookEvent) {
			logger.Debug("Persistence hook", "hook", string(ev.Kind), "duration", ev.Duration, "err", ev.Err)
		},
	}
}
