package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/scorm/internal/logging"
	"github.com/aretw0/scorm/pkg/cmi"
	"github.com/aretw0/scorm/pkg/domain"
	"github.com/aretw0/scorm/pkg/ports"
	"github.com/google/uuid"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager hosts live SCORM API instances and persists their attempts.
// Calls to one session are serialized; different sessions run in parallel.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.AttemptStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	liveMu        sync.RWMutex
	live          map[string]*liveSession // by session ID
	registrations map[string]string       // registration ID -> session ID

	locker      ports.DistributedLocker // Optional distributed locker
	lockTTL     time.Duration
	hookTimeout time.Duration
	registry    *cmi.Registry
	observer    domain.Hooks
	newID       func() string
	logger      *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL bounds how long a distributed lock survives a crashed holder. Default 30s.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithHookTimeout bounds each store write made by the commit and terminate hooks. Default 10s.
func WithHookTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.hookTimeout = d
	}
}

// WithLogger configures a logger for the Manager and the sessions it creates.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithRegistry sets the data model used by every session.
func WithRegistry(reg *cmi.Registry) Option {
	return func(m *Manager) {
		m.registry = reg
	}
}

// WithObserver forwards OnCall, OnHook and OnHookError of every session (metrics, audit).
// OnCommit and OnTerminate are owned by the Manager and ignored here.
func WithObserver(hooks domain.Hooks) Option {
	return func(m *Manager) {
		m.observer = hooks
	}
}

// WithIDGenerator replaces the UUID generator for session IDs.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a new Session Manager with the given attempt store.
func NewManager(store ports.AttemptStore, opts ...Option) *Manager {
	m := &Manager{
		store:         store,
		locks:         make(map[string]*lockEntry),
		live:          make(map[string]*liveSession),
		registrations: make(map[string]string),
		lockTTL:       30 * time.Second,
		hookTimeout:   10 * time.Second,
		registry:      cmi.DefaultRegistry(),
		newID:         uuid.NewString,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock executes fn while holding the local and, if configured, the distributed lock for key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Inspect returns the persisted attempt of a registration.
func (m *Manager) Inspect(ctx context.Context, registrationID string) (*domain.Attempt, error) {
	return m.store.Load(ctx, registrationID)
}

// List returns the registration IDs of all persisted attempts.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Delete retires any live session of the registration and removes its persisted attempt.
func (m *Manager) Delete(ctx context.Context, registrationID string) error {
	return m.WithLock(ctx, registrationKey(registrationID), func(ctx context.Context) error {
		m.retireRegistration(registrationID)
		return m.store.Delete(ctx, registrationID)
	})
}

// Store returns the underlying attempt store.
func (m *Manager) Store() ports.AttemptStore {
	return m.store
}

func registrationKey(registrationID string) string {
	return "registration:" + registrationID
}
