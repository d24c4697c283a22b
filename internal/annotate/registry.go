package annotate

import (
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/przemekoduje/overo/internal/model"
)

type registryKey struct {
	owner string
	look  model.LookKey
}

type entry struct {
	mu       sync.Mutex
	session  *Session
	lastUsed time.Time
}

// Registry holds editor sessions for remote clients, one per admin session
// and look. Idle sessions are evicted after the TTL.
type Registry struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[registryKey]*entry
}

// NewRegistry creates a registry evicting sessions idle for longer than ttl.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[registryKey]*entry),
	}
}

// Do runs fn with exclusive access to the session of owner on look, creating
// it if needed.
func (r *Registry) Do(owner string, look model.LookKey, fn func(*Session) error) error {
	key := registryKey{owner: owner, look: look}

	r.mu.Lock()
	e, ok := r.sessions[key]
	if !ok {
		e = &entry{session: NewSession()}
		r.sessions[key] = e
		klog.V(2).Infof("editor session opened for %s", look)
	}
	e.lastUsed = r.now()
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Drop discards a session.
func (r *Registry) Drop(owner string, look model.LookKey) {
	r.mu.Lock()
	delete(r.sessions, registryKey{owner: owner, look: look})
	r.mu.Unlock()
}

// DropOwner discards every session held by owner, e.g. on logout.
func (r *Registry) DropOwner(owner string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.sessions {
		if k.owner == owner {
			delete(r.sessions, k)
		}
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts idle sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-r.ttl)
	n := 0
	for k, e := range r.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(r.sessions, k)
			n++
		}
	}
	if n > 0 {
		klog.V(1).Infof("evicted %d idle editor sessions", n)
	}
	return n
}
