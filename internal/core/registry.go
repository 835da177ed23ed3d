package core

import "sync"

// ConnectionRegistry associates live connections with the user identity
// that authenticated them. A user may hold several simultaneous
// connections (multiple tabs or devices), so writes are keyed by
// connection id while lookups by user return the full set.
type ConnectionRegistry struct {
	mu     sync.RWMutex
	byConn map[string]int64
	byUser map[int64]map[string]struct{}
}

// NewConnectionRegistry constructs an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		byConn: make(map[string]int64),
		byUser: make(map[int64]map[string]struct{}),
	}
}

// Register records the connection→user association, overwriting any prior
// association for the same connection id.
func (r *ConnectionRegistry) Register(connID string, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byConn[connID]; ok && prev != userID {
		r.removeFromUser(prev, connID)
	}
	r.byConn[connID] = userID

	conns := r.byUser[userID]
	if conns == nil {
		conns = make(map[string]struct{})
		r.byUser[userID] = conns
	}
	conns[connID] = struct{}{}
}

// Unregister removes the association. Idempotent; absent ids are a no-op.
func (r *ConnectionRegistry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byConn[connID]
	if !ok {
		return
	}
	delete(r.byConn, connID)
	r.removeFromUser(userID, connID)
}

// UserFor returns the user bound to a connection, if any.
func (r *ConnectionRegistry) UserFor(connID string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.byConn[connID]
	return userID, ok
}

// Connections returns all connection ids registered for a user, possibly
// empty. "Not found" is not an error: callers deliver to nobody.
func (r *ConnectionRegistry) Connections(userID int64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.byUser[userID]
	out := make([]string, 0, len(conns))
	for id := range conns {
		out = append(out, id)
	}
	return out
}

// caller must hold mu
func (r *ConnectionRegistry) removeFromUser(userID int64, connID string) {
	conns := r.byUser[userID]
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.byUser, userID)
	}
}
