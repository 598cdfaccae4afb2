package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/scorm/pkg/domain"
	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

// sweepInterval bounds how often buckets of retired sessions are dropped.
const sweepInterval = time.Minute

// callLimiter keeps one token bucket per live session.
type callLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	live      func(sessionID string) bool
	now       func() time.Time
	lastSweep time.Time
	sessions  map[string]*rate.Limiter
}

func newCallLimiter(perMinute int, live func(sessionID string) bool) *callLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &callLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		live:     live,
		now:      time.Now,
		sessions: make(map[string]*rate.Limiter),
	}
}

func (l *callLimiter) allow(sessionID string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	l.sweep()
	lim, ok := l.sessions[sessionID]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.sessions[sessionID] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// sweep drops the buckets of sessions retired by relaunch, Delete or expiry
// without a DELETE request. l.mu must be held.
func (l *callLimiter) sweep() {
	now := l.now()
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	l.lastSweep = now
	for id := range l.sessions {
		if !l.live(id) {
			delete(l.sessions, id)
		}
	}
}

func (l *callLimiter) forget(sessionID string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sessions, sessionID)
}

func (l *callLimiter) size() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// rateLimit answers 404 for unknown sessions before a bucket is allocated,
// then 429 once the session's bucket is empty.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		id := chi.URLParam(r, "id")
		if !s.Manager.Live(id) {
			http.Error(w, domain.ErrSessionNotFound.Error(), http.StatusNotFound)
			return
		}
		if !s.limiter.allow(id) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			s.logger.Warn("Rate limit exceeded", "session_id", id, "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}
