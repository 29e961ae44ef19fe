// Package realtime tracks live client connections and fans out events to
// them, backed by the durable notification log for offline users.
package realtime

import "sync"

// Registry maps user ids to their open connections. Purely in-memory: after
// a restart every user is offline until they reconnect, and the notification
// log covers what they missed. Safe for concurrent connect, disconnect and
// lookup; operations on one user's set do not contend with other users
// beyond the map lock.
type Registry struct {
	mu    sync.RWMutex
	conns map[uint]map[*Client]struct{}
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{conns: make(map[uint]map[*Client]struct{})}
}

// Add registers a connection for a user. Many connections may map to one
// user (multi-device).
func (r *Registry) Add(userID uint, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		set = make(map[*Client]struct{})
		r.conns[userID] = set
	}
	set[c] = struct{}{}
}

// Remove unregisters a connection. Removing a connection that is already
// gone is a no-op.
func (r *Registry) Remove(userID uint, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.conns[userID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, userID)
	}
}

// Connections returns a snapshot of the user's open connections. The caller
// may iterate it without holding any lock.
func (r *Registry) Connections(userID uint) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.conns[userID]
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Count returns the number of open connections for a user
func (r *Registry) Count(userID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}
