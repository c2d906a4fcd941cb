package registry

import (
	"sort"
	"sync"

	"github.com/supportdesk/signaling-platform/pkg/protocol"
)

// Registry is the single source of truth for which usernames are
// online. It owns the connection<->username bindings exclusively; no
// other component touches the maps. A username may be bound by several
// live connections (multiple tabs), a connection maps to at most one
// username.
type Registry struct {
	mu        sync.RWMutex
	usernames map[protocol.ConnectionID]protocol.Username
	conns     map[protocol.Username]map[protocol.ConnectionID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		usernames: make(map[protocol.ConnectionID]protocol.Username),
		conns:     make(map[protocol.Username]map[protocol.ConnectionID]struct{}),
	}
}

// Register binds username to conn. Re-registering an already bound
// connection rebinds it, last write wins. This is how a client sets a
// display name after connecting.
func (r *Registry) Register(conn protocol.ConnectionID, username protocol.Username) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if previous, ok := r.usernames[conn]; ok {
		r.dropBinding(conn, previous)
	}

	r.usernames[conn] = username
	set, ok := r.conns[username]
	if !ok {
		set = make(map[protocol.ConnectionID]struct{})
		r.conns[username] = set
	}
	set[conn] = struct{}{}
}

// Unregister removes the binding for conn and reports the username it
// was bound to. An unknown connection is a no-op, not an error: a
// disconnect may race a join message that never arrived.
func (r *Registry) Unregister(conn protocol.ConnectionID) (protocol.Username, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	username, ok := r.usernames[conn]
	if !ok {
		return "", false
	}
	r.dropBinding(conn, username)
	return username, true
}

func (r *Registry) dropBinding(conn protocol.ConnectionID, username protocol.Username) {
	delete(r.usernames, conn)
	if set, ok := r.conns[username]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(r.conns, username)
		}
	}
}

func (r *Registry) UsernameOf(conn protocol.ConnectionID) (protocol.Username, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	username, ok := r.usernames[conn]
	return username, ok
}

// ConnectionsOf returns every live connection bound to username.
func (r *Registry) ConnectionsOf(username protocol.Username) []protocol.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.conns[username]
	if !ok {
		return nil
	}
	result := make([]protocol.ConnectionID, 0, len(set))
	for conn := range set {
		result = append(result, conn)
	}
	return result
}

// Connections returns every connection with a bound identity.
func (r *Registry) Connections() []protocol.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]protocol.ConnectionID, 0, len(r.usernames))
	for conn := range r.usernames {
		result = append(result, conn)
	}
	return result
}

// SnapshotUsernames returns the distinct usernames currently online,
// sorted so presence payloads are stable.
func (r *Registry) SnapshotUsernames() []protocol.Username {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]protocol.Username, 0, len(r.conns))
	for username := range r.conns {
		result = append(result, username)
	}
	sort.Strings(result)
	return result
}

func (r *Registry) IsUsernameTaken(username protocol.Username) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.conns[username]
	return ok
}
