package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync/atomic"
	"time"

	"github.com/aretw0/scorm"
	"github.com/aretw0/scorm/pkg/domain"
)

// ErrInvalidLaunch is returned when a LaunchRequest is missing identity or carries a bad seed.
var ErrInvalidLaunch = errors.New("invalid launch request")

// LaunchRequest describes one SCO launch.
type LaunchRequest struct {
	LearnerID   string `json:"learner_id"`
	LearnerName string `json:"learner_name,omitempty"`
	ScoID       string `json:"sco_id"`

	// RegistrationID keys the persisted attempt. Defaults to "<LearnerID>-<ScoID>".
	RegistrationID string `json:"registration_id,omitempty"`

	// Seed carries extra host-provided elements (cmi.launch_data, cmi.mode,
	// cmi.max_time_allowed, cmi.comments_from_lms.*). It overrides resumed values.
	Seed map[string]string `json:"seed,omitempty"`
}

// Info describes a live session.
type Info struct {
	SessionID      string       `json:"session_id"`
	RegistrationID string       `json:"registration_id"`
	LearnerID      string       `json:"learner_id"`
	ScoID          string       `json:"sco_id"`
	Entry          string       `json:"entry"`
	State          domain.State `json:"-"`
	StateName      string       `json:"state"`
	LaunchedAt     time.Time    `json:"launched_at"`
}

type liveSession struct {
	id         string
	api        *scorm.API
	attempt    *domain.Attempt // guarded by the session lock
	entry      string
	launchedAt time.Time

	// retired is set once the session is replaced, closed or deleted.
	// Its hooks then stop writing to the store.
	retired atomic.Bool
}

func (ls *liveSession) info() Info {
	state := ls.api.State()
	return Info{
		SessionID:      ls.id,
		RegistrationID: ls.attempt.RegistrationID,
		LearnerID:      ls.attempt.LearnerID,
		ScoID:          ls.attempt.ScoID,
		Entry:          ls.entry,
		State:          state,
		StateName:      state.String(),
		LaunchedAt:     ls.launchedAt,
	}
}

// sessionScoped elements describe the previous session and are not carried into a resume.
var sessionScoped = map[string]bool{
	"cmi.exit":         true,
	"cmi.entry":        true,
	"cmi.session_time": true,
}

// Launch creates a live session for a learner on a SCO.
// A suspended or unterminated attempt of the same registration is resumed with
// cmi.entry "resume"; anything else starts a new attempt "ab-initio".
// A previous live session of the registration is retired.
func (m *Manager) Launch(ctx context.Context, req LaunchRequest) (Info, error) {
	if req.LearnerID == "" || req.ScoID == "" {
		return Info{}, fmt.Errorf("%w: learner_id and sco_id are required", ErrInvalidLaunch)
	}
	if err := m.registry.CheckSeed(req.Seed); err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrInvalidLaunch, err)
	}
	regID := req.RegistrationID
	if regID == "" {
		regID = req.LearnerID + "-" + req.ScoID
	}

	var info Info
	err := m.WithLock(ctx, registrationKey(regID), func(ctx context.Context) error {
		prev, err := m.store.Load(ctx, regID)
		if err != nil && !errors.Is(err, domain.ErrAttemptNotFound) {
			return fmt.Errorf("failed to load attempt %s: %w", regID, err)
		}

		seed := make(map[string]string)
		attempt := domain.NewAttempt(regID, req.LearnerID, req.ScoID)
		entry := domain.EntryAbInitio
		if prev != nil && prev.Resumable() {
			entry = domain.EntryResume
			attempt = prev.Clone()
			attempt.TerminatedAt = nil
			for k, v := range prev.Data {
				if !sessionScoped[k] {
					seed[k] = v
				}
			}
		}
		maps.Copy(seed, req.Seed)
		seed["cmi.learner_id"] = req.LearnerID
		if req.LearnerName != "" {
			seed["cmi.learner_name"] = req.LearnerName
		}
		seed["cmi.entry"] = entry

		ls := &liveSession{
			id:         m.newID(),
			attempt:    attempt,
			entry:      entry,
			launchedAt: time.Now().UTC(),
		}
		attempt.SessionID = ls.id
		ls.api = scorm.New(
			scorm.WithRegistry(m.registry),
			scorm.WithSeed(seed),
			scorm.WithLogger(m.logger.With("session_id", ls.id)),
			scorm.WithHooks(m.hooksFor(ls)),
		)

		info = ls.info()
		m.retireRegistration(regID)
		m.register(ls)

		m.logger.Info("session launched",
			"session_id", ls.id,
			"registration_id", regID,
			"entry", entry,
		)
		return nil
	})
	return info, err
}

// Call runs fn against the API of a live session while holding its lock.
// Returns domain.ErrSessionNotFound for unknown or retired sessions.
func (m *Manager) Call(ctx context.Context, sessionID string, fn func(api *scorm.API) error) error {
	return m.WithLock(ctx, sessionKey(sessionID), func(ctx context.Context) error {
		ls, ok := m.lookup(sessionID)
		if !ok {
			return domain.ErrSessionNotFound
		}
		return fn(ls.api)
	})
}

// Get describes a live session.
func (m *Manager) Get(ctx context.Context, sessionID string) (Info, error) {
	var info Info
	err := m.WithLock(ctx, sessionKey(sessionID), func(ctx context.Context) error {
		ls, ok := m.lookup(sessionID)
		if !ok {
			return domain.ErrSessionNotFound
		}
		info = ls.info()
		return nil
	})
	return info, err
}

// Live reports whether sessionID addresses a live session. It does not wait for the session lock.
func (m *Manager) Live(sessionID string) bool {
	_, ok := m.lookup(sessionID)
	return ok
}

// Close retires a live session. Its persisted attempt is kept.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionKey(sessionID), func(ctx context.Context) error {
		if !m.unregister(sessionID) {
			return domain.ErrSessionNotFound
		}
		m.logger.Info("session closed", "session_id", sessionID)
		return nil
	})
}

// Active returns the number of live sessions.
func (m *Manager) Active() int {
	m.liveMu.RLock()
	defer m.liveMu.RUnlock()
	return len(m.live)
}

func (m *Manager) hooksFor(ls *liveSession) domain.Hooks {
	return domain.Hooks{
		OnCommit: func(s domain.Snapshot) error {
			return m.persist(ls, s, false)
		},
		OnTerminate: func(s domain.Snapshot) error {
			return m.persist(ls, s, true)
		},
		OnHookError: func(kind domain.HookKind, err error) {
			m.logger.Error("failed to persist attempt",
				"session_id", ls.id,
				"registration_id", ls.attempt.RegistrationID,
				"hook", string(kind),
				"err", err,
			)
			if m.observer.OnHookError != nil {
				m.observer.OnHookError(kind, err)
			}
		},
		OnCall: m.observer.OnCall,
		OnHook: m.observer.OnHook,
	}
}

// persist runs inside an API call, so the session lock is already held. The save
// itself takes the registration lock, which orders it against Launch and Delete:
// a session retired by either never overwrites the attempt again.
func (m *Manager) persist(ls *liveSession, snapshot domain.Snapshot, final bool) error {
	a := ls.attempt
	ctx, cancel := context.WithTimeout(context.Background(), m.hookTimeout)
	defer cancel()

	return m.WithLock(ctx, registrationKey(a.RegistrationID), func(ctx context.Context) error {
		if ls.retired.Load() {
			m.logger.Debug("retired session not persisted",
				"session_id", ls.id,
				"registration_id", a.RegistrationID,
			)
			return nil
		}
		now := time.Now().UTC()
		a.Data = snapshot
		a.UpdatedAt = now
		if final {
			a.TerminatedAt = &now
		} else {
			a.Commits++
		}
		return m.store.Save(ctx, a.RegistrationID, a)
	})
}

func (m *Manager) lookup(sessionID string) (*liveSession, bool) {
	m.liveMu.RLock()
	defer m.liveMu.RUnlock()
	ls, ok := m.live[sessionID]
	return ls, ok
}

func (m *Manager) register(ls *liveSession) {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	m.live[ls.id] = ls
	m.registrations[ls.attempt.RegistrationID] = ls.id
}

func (m *Manager) unregister(sessionID string) bool {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	ls, ok := m.live[sessionID]
	if !ok {
		return false
	}
	ls.retired.Store(true)
	delete(m.live, sessionID)
	if m.registrations[ls.attempt.RegistrationID] == sessionID {
		delete(m.registrations, ls.attempt.RegistrationID)
	}
	return true
}

func (m *Manager) retireRegistration(registrationID string) {
	m.liveMu.Lock()
	defer m.liveMu.Unlock()
	if id, ok := m.registrations[registrationID]; ok {
		if ls, ok := m.live[id]; ok {
			ls.retired.Store(true)
		}
		delete(m.live, id)
		delete(m.registrations, registrationID)
	}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}
