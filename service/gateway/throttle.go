package gateway

import (
	"sync"
	"time"
)

// AuthThrottle counts failed handshakes per source address over a sliding
// window. Handshake-only; plain HTTP rate limiting lives elsewhere.
type AuthThrottle struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*throttleEntry
	clock   func() time.Time // injectable for tests
}

type throttleEntry struct {
	attempts    int
	windowStart time.Time
}

func NewAuthThrottle(limit int, window time.Duration) *AuthThrottle {
	return &AuthThrottle{
		limit:   limit,
		window:  window,
		entries: make(map[string]*throttleEntry),
		clock:   time.Now,
	}
}

// Allow reports whether addr may attempt authentication. Checked before the
// token is even looked at, so a throttled address cannot probe credentials.
func (t *AuthThrottle) Allow(addr string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entries[addr]
	if e == nil {
		return true
	}
	if t.clock().Sub(e.windowStart) >= t.window {
		delete(t.entries, addr) // window elapsed, entry evicted
		return true
	}
	return e.attempts < t.limit
}

// Fail records a failed attempt from addr, lazily starting a new window.
func (t *AuthThrottle) Fail(addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock()
	e := t.entries[addr]
	if e == nil || now.Sub(e.windowStart) >= t.window {
		t.entries[addr] = &throttleEntry{attempts: 1, windowStart: now}
		return
	}
	e.attempts++
}

// Reset clears the entry after a successful authentication.
func (t *AuthThrottle) Reset(addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, addr)
}

// Attempts is a test/diagnostics view.
func (t *AuthThrottle) Attempts(addr string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e := t.entries[addr]; e != nil {
		return e.attempts
	}
	return 0
}
