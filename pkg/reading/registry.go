package reading

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taleweave/taleweave/pkg/auth"
	"github.com/taleweave/taleweave/pkg/errcodes"
	"github.com/taleweave/taleweave/pkg/metrics"
)

// Registry holds the live reading sessions of this process. Sessions that
// have not been touched for longer than the TTL are removed by Sweep.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	metrics  *metrics.Metrics
}

func NewRegistry(ttl time.Duration, m *metrics.Metrics) *Registry {
	return &Registry{
		sessions: map[uuid.UUID]*Session{},
		ttl:      ttl,
		metrics:  m,
	}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	r.metrics.SetReadingSessions(len(r.sessions))
}

// Get returns the session with the given id. Sessions belonging to someone
// else are reported as missing.
func (r *Registry) Get(id uuid.UUID, userID int) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()

	if !ok || s.UserID != userID || r.expired(s, time.Now()) {
		return nil, errcodes.NotFound("Reading session")
	}
	return s, nil
}

func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	r.metrics.SetReadingSessions(len(r.sessions))
}

// RemoveUser drops every session owned by userID.
func (r *Registry) RemoveUser(userID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.sessions {
		if s.UserID == userID {
			delete(r.sessions, id)
		}
	}
	r.metrics.SetReadingSessions(len(r.sessions))
}

// Watch drops a user's sessions when they sign out. The returned function
// stops watching.
func (r *Registry) Watch(events *auth.Events) func() {
	return events.Subscribe(func(ev auth.Event) {
		if ev.Type == auth.EventSignedOut {
			r.RemoveUser(ev.UserID)
		}
	})
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) expired(s *Session, now time.Time) bool {
	return r.ttl > 0 && now.Sub(s.lastTouched()) > r.ttl
}

// Sweep removes expired sessions and returns how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if r.expired(s, now) {
			delete(r.sessions, id)
			removed++
		}
	}
	r.metrics.SetReadingSessions(len(r.sessions))
	return removed
}
