// Package presence tracks which users currently hold live websocket
// connections. State is process-local and never persisted: each server
// instance sees only its own connections, and the map is empty at start.
package presence

import "sync"

// Tracker counts live connections per user.
type Tracker struct {
	mu    sync.Mutex
	conns map[uint]int
}

// NewTracker creates an empty presence tracker.
func NewTracker() *Tracker {
	return &Tracker{
		conns: make(map[uint]int),
	}
}

// Connect records a new connection for the user. It returns true exactly
// when this is the user's first live connection (they just came online).
func (t *Tracker) Connect(userID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.conns[userID]++
	return t.conns[userID] == 1
}

// Disconnect records a closed connection for the user. It returns true
// exactly when the user's last connection closed (they just went offline).
// Unbalanced calls are tolerated; the count never goes negative.
func (t *Tracker) Disconnect(userID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.conns[userID]
	if !ok {
		return false
	}
	if n <= 1 {
		delete(t.conns, userID)
		return true
	}
	t.conns[userID] = n - 1
	return false
}

// Online reports whether the user has at least one live connection.
func (t *Tracker) Online(userID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.conns[userID] > 0
}

// Count returns the number of distinct users currently online.
func (t *Tracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.conns)
}
