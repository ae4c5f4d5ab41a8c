package gateway

import (
	"sync"
)

// Registry is the presence map: connID <-> userID, both directions under one
// lock. Invariants: a connection maps to at most one user; a user holds at
// most one connection (single active session, last handshake wins).
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]*Client // conn_id -> client
	byUser map[string]*Client // user_id -> client
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*Client),
		byUser: make(map[string]*Client),
	}
}

// Bind installs the mapping for an authenticated client. If the user already
// holds a connection, that one is returned so the caller can evict it; its
// byConn entry is removed here, atomically with installing the new mapping.
func (r *Registry) Bind(c *Client) (evicted *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old := r.byUser[c.UserID]; old != nil && old.ConnID != c.ConnID {
		delete(r.byConn, old.ConnID)
		evicted = old
	}
	r.byConn[c.ConnID] = c
	r.byUser[c.UserID] = c
	return evicted
}

// Unbind removes the mapping iff it still points at this client. Returns
// false when the client was already evicted by a newer handshake, in which
// case the user must not flip offline.
func (r *Registry) Unbind(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byConn[c.ConnID]
	if !ok || cur != c {
		return false
	}
	delete(r.byConn, c.ConnID)
	if u := r.byUser[c.UserID]; u == c {
		delete(r.byUser, c.UserID)
	}
	return true
}

func (r *Registry) Get(connID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byConn[connID]
	return c, ok
}

func (r *Registry) ConnOf(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

// ListOnline returns a consistent snapshot of online user ids.
func (r *Registry) ListOnline() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byUser))
	for u := range r.byUser {
		out = append(out, u)
	}
	return out
}

// Alive reports whether connID is a live, presence-bound connection: known to
// the transport index and still the user's current session. The reconciler
// keys on this.
func (r *Registry) Alive(connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byConn[connID]
	if !ok || c.UserID == "" {
		return false
	}
	return r.byUser[c.UserID] == c
}

// ClientsFor maps room-set conn ids back to live clients, skipping ids whose
// connection vanished without cleanup (healed later by the reconciler).
func (r *Registry) ClientsFor(connIDs []string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(connIDs))
	for _, id := range connIDs {
		if c, ok := r.byConn[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

// All returns every live client (shutdown path).
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.byConn))
	for _, c := range r.byConn {
		out = append(out, c)
	}
	return out
}
