package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Registry is the process-wide map from user id to that user's live
// connections. It is the only shared mutable state in the core; every
// access goes through the mutex and no I/O happens while it is held.
//
// Invariant: a user id is present as a key if and only if its slice is
// non-empty.
type Registry struct {
	mu          sync.RWMutex
	connections map[string][]*Connection
	log         *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		connections: make(map[string][]*Connection),
		log:         log,
	}
}

// Add appends the connection to its owner's collection, creating it if absent.
func (r *Registry) Add(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[conn.userID] = append(r.connections[conn.userID], conn)
}

// Remove locates the connection by identity within its owner's collection
// and removes it. If the owner's collection becomes empty the owner's key
// is removed entirely, keeping memory bounded by actual live connections.
// Removing an unknown connection is a no-op.
func (r *Registry) Remove(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.connections[conn.userID]
	if !ok {
		return
	}
	for i, candidate := range conns {
		if candidate == conn {
			conns = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(conns) == 0 {
		delete(r.connections, conn.userID)
		return
	}
	r.connections[conn.userID] = conns
}

// FanOut serializes the frame once and queues it on every live connection
// of the user. Connections already closing are skipped silently. It
// returns the number of connections the frame was queued on.
func (r *Registry) FanOut(userID string, frame any) int {
	data, err := json.Marshal(frame)
	if err != nil {
		r.log.Error("Failed to serialize outbound frame", "error", err)
		return 0
	}
	return r.FanOutRaw(userID, data)
}

// FanOutRaw queues an already-serialized frame on every live connection
// of the user.
func (r *Registry) FanOutRaw(userID string, data []byte) int {
	r.mu.RLock()
	conns := make([]*Connection, len(r.connections[userID]))
	copy(conns, r.connections[userID])
	r.mu.RUnlock()

	delivered := 0
	for _, conn := range conns {
		if conn.Send(data) {
			delivered++
		}
	}
	return delivered
}

// Snapshot returns every registered connection. The liveness sweep works
// on the snapshot so socket teardown never happens under the lock.
func (r *Registry) Snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var all []*Connection
	for _, conns := range r.connections {
		all = append(all, conns...)
	}
	return all
}

// Counts reports registered users and open connections, for telemetry.
func (r *Registry) Counts() (users, conns int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.connections {
		conns += len(c)
	}
	return len(r.connections), conns
}

// HasUser reports whether the user currently owns at least one connection.
func (r *Registry) HasUser(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.connections[userID]
	return ok
}
