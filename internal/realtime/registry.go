package realtime

import (
	"log"
	"sort"
	"sync"
)

// Conn is one live bidirectional client channel. Send must be safe for
// concurrent use; Close must be idempotent.
type Conn interface {
	Send(v any) error
	Close() error
}

// Registry maps user ids to their single live connection. It is the
// authoritative source of who is online; empty at startup, reconstructed
// from live connections after a restart.
type Registry struct {
	mu    sync.Mutex
	conns map[string]Conn

	onPresence func(users []string, conns []Conn)
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// SetPresenceHook installs the callback invoked after every mutation with a
// snapshot of the online user set and the connections to notify. The hook
// runs outside the registry lock.
func (r *Registry) SetPresenceHook(hook func(users []string, conns []Conn)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onPresence = hook
}

// Register installs conn as userID's only connection. A previously
// registered connection for the same user is closed fire-and-forget; the new
// record does not wait on the old connection's close handshake.
func (r *Registry) Register(userID string, conn Conn) {
	r.mu.Lock()
	old, had := r.conns[userID]
	if had && old != conn {
		log.Printf("realtime: user %s reconnected, evicting previous connection", userID)
		go old.Close()
	}
	r.conns[userID] = conn
	hook, users, targets := r.snapshotLocked()
	r.mu.Unlock()

	if hook != nil {
		hook(users, targets)
	}
}

// Unregister removes userID's record only when conn is still its current
// owner, so a delayed close from a superseded connection cannot evict the
// replacement.
func (r *Registry) Unregister(userID string, conn Conn) {
	r.mu.Lock()
	current, ok := r.conns[userID]
	if !ok || current != conn {
		r.mu.Unlock()
		return
	}
	delete(r.conns, userID)
	hook, users, targets := r.snapshotLocked()
	r.mu.Unlock()

	if hook != nil {
		hook(users, targets)
	}
}

// Lookup returns userID's live connection, if any.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[userID]
	return c, ok
}

// ActiveUsers returns the sorted set of online user ids.
func (r *Registry) ActiveUsers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeUsersLocked()
}

// ActiveCount returns the number of live connections.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

func (r *Registry) activeUsersLocked() []string {
	users := make([]string, 0, len(r.conns))
	for id := range r.conns {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}

func (r *Registry) snapshotLocked() (func([]string, []Conn), []string, []Conn) {
	if r.onPresence == nil {
		return nil, nil, nil
	}
	users := r.activeUsersLocked()
	targets := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		targets = append(targets, c)
	}
	return r.onPresence, users, targets
}
