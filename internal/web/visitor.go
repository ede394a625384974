package web

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/fiszki/internal/session"
)

// Visitor is one browser's interactive context. Its fields are guarded by
// mu; handlers hold the lock for the whole request.
type Visitor struct {
	mu       sync.Mutex
	ID       string
	Nick     string
	ShowAll  bool
	Study    session.State
	flash    string
	lastSeen time.Time
}

// SetFlash queues a one-shot notice for the next rendered page.
func (v *Visitor) SetFlash(msg string) {
	v.flash = msg
}

// TakeFlash returns and clears the queued notice.
func (v *Visitor) TakeFlash() string {
	msg := v.flash
	v.flash = ""
	return msg
}

// SwitchUser changes the nickname. A different user starts without a session.
func (v *Visitor) SwitchUser(nick string) {
	if nick != v.Nick {
		v.Study = session.State{}
	}
	v.Nick = nick
}

// Registry keeps visitors in memory, keyed by cookie value. Visitors idle
// for longer than ttl are dropped the next time the registry is used.
type Registry struct {
	mu       sync.Mutex
	visitors map[string]*Visitor
	ttl      time.Duration
	now      func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		visitors: make(map[string]*Visitor),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Lookup returns the visitor for id, creating a fresh one when id is unknown
// or expired. The second result is true when a new visitor was created.
func (r *Registry) Lookup(id string) (*Visitor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.prune(now)

	if v, ok := r.visitors[id]; ok && id != "" {
		v.lastSeen = now
		return v, false
	}
	v := &Visitor{ID: uuid.NewString(), lastSeen: now}
	r.visitors[v.ID] = v
	return v, true
}

// Len returns the number of live visitors.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

func (r *Registry) prune(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	for id, v := range r.visitors {
		if now.Sub(v.lastSeen) > r.ttl {
			delete(r.visitors, id)
		}
	}
}
