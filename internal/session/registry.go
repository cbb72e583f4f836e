package session

import (
	"sync"
	"time"
)

// Registry is a thread-safe session registry with TTL eviction. Each
// session is an independently owned instance of the data model, so
// concurrent users never share state.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Get returns the session for the given id, creating it on first use.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		sess = New()
		r.sessions[id] = sess
	}
	return sess
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Cleanup removes sessions idle for longer than the TTL.
func (r *Registry) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for id, sess := range r.sessions {
		if now.Sub(sess.LastUsed()) > r.ttl {
			delete(r.sessions, id)
		}
	}
}
