package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/map-insights/internal/explorer"
	"github.com/sells-group/map-insights/internal/metrics"
)

// SessionFactory builds a fresh exploration session.
type SessionFactory func() *explorer.Session

type entry struct {
	session  *explorer.Session
	lastSeen time.Time
	watchers int
	// closed is closed when the session is removed so live event streams
	// can hang up.
	closed chan struct{}
}

// Registry holds the live sessions of the API server and expires idle ones.
type Registry struct {
	factory SessionFactory
	idle    time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates a registry that expires sessions untouched for idle.
// A non-positive idle disables expiry.
func NewRegistry(factory SessionFactory, idle time.Duration) *Registry {
	return &Registry{
		factory:  factory,
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Create starts a new session and registers it.
func (r *Registry) Create() *explorer.Session {
	s := r.factory()

	r.mu.Lock()
	r.sessions[s.ID] = &entry{session: s, lastSeen: r.now(), closed: make(chan struct{})}
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	zap.L().Debug("api: session created", zap.String("session_id", s.ID))
	return s
}

// Get returns the session with id and marks it as used.
func (r *Registry) Get(id string) (*explorer.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.session, true
}

// Watch pins the session while an event stream is attached. The returned
// channel is closed when the session is removed; release must be called
// when the stream ends.
func (r *Registry) Watch(id string) (s *explorer.Session, closed <-chan struct{}, release func(), ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, nil, nil, false
	}
	e.watchers++
	e.lastSeen = r.now()

	var once sync.Once
	release = func() {
		once.Do(func() {
			r.mu.Lock()
			e.watchers--
			e.lastSeen = r.now()
			r.mu.Unlock()
		})
	}
	return e.session, e.closed, release, true
}

// Delete removes the session with id. It reports whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
		close(e.closed)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if ok {
		metrics.ActiveSessions.Set(float64(n))
		zap.L().Debug("api: session deleted", zap.String("session_id", id))
	}
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than the configured timeout that
// have no attached event stream, and returns how many were removed.
func (r *Registry) Sweep() int {
	if r.idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	removed := 0
	for id, e := range r.sessions {
		if e.watchers > 0 || e.lastSeen.After(cutoff) {
			continue
		}
		delete(r.sessions, id)
		close(e.closed)
		removed++
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if removed > 0 {
		metrics.ActiveSessions.Set(float64(n))
	}
	return removed
}

// RunSweeper expires idle sessions every interval. It blocks until ctx is
// cancelled.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	log := zap.L().With(zap.String("component", "api.sweeper"))
	log.Info("starting session sweeper",
		zap.Duration("interval", interval),
		zap.Duration("idle_timeout", r.idle),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				log.Info("expired idle sessions", zap.Int("removed", n), zap.Int("remaining", r.Len()))
			}
		}
	}
}
