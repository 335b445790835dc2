package app

import "sync"

// Conn write side of a live connection.
// Implementations must be safe for concurrent writers, since the
// routing of several inbound connections can target the same socket.
type Conn interface {
	WriteJSON(v interface{}) error
}

// ConnRegistry identity key → live connection.
// Exclusively owned and mutated by the gateway process; concurrent
// writers from different connections are routine, hence the lock.
type ConnRegistry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewConnRegistry create a ConnRegistry
func NewConnRegistry() *ConnRegistry {
	return &ConnRegistry{conns: make(map[string]Conn)}
}

// Register bind an identity key to its connection, replacing any previous one
func (r *ConnRegistry) Register(identityKey string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[identityKey] = conn
}

// Unregister drop the identity key's connection
func (r *ConnRegistry) Unregister(identityKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, identityKey)
}

// Get look up the live connection of an identity key
func (r *ConnRegistry) Get(identityKey string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[identityKey]
	return conn, ok
}

// Len number of registered connections
func (r *ConnRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
