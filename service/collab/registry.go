package collab

import (
	"sync"
)

// Registry is the session registry: which connections exist, which
// user owns each, and which rooms each connection has joined. All
// indexes are guarded by one RWMutex and only mutated through these
// methods.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]*Client            // conn_id -> client
	byUser map[string]map[string]*Client // user -> conn_id -> client
	rooms  map[string]map[string]*Client // room -> conn_id -> client
	joined map[string]map[string]bool    // conn_id -> room -> joined
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*Client),
		byUser: make(map[string]map[string]*Client),
		rooms:  make(map[string]map[string]*Client),
		joined: make(map[string]map[string]bool),
	}
}

// Register records a new connection. Returns false if the conn id is
// already taken.
func (r *Registry) Register(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byConn[c.ConnID]; exists {
		return false
	}
	r.byConn[c.ConnID] = c
	m := r.byUser[c.UserID]
	if m == nil {
		m = make(map[string]*Client)
		r.byUser[c.UserID] = m
	}
	m[c.ConnID] = c
	r.joined[c.ConnID] = make(map[string]bool)
	return true
}

// Join adds the connection to a room. Duplicate joins are idempotent.
// Returns the member count after the join.
func (r *Registry) Join(c *Client, room string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byConn[c.ConnID]; !exists {
		return 0
	}
	m := r.rooms[room]
	if m == nil {
		m = make(map[string]*Client)
		r.rooms[room] = m
	}
	m[c.ConnID] = c
	r.joined[c.ConnID][room] = true
	return len(m)
}

// Leave removes the connection from a room. The second return reports
// whether this was the user's last connection in that room, which is
// what presence cleanup keys on.
func (r *Registry) Leave(c *Client, room string) (left, lastOfUser bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(c, room)
}

func (r *Registry) leaveLocked(c *Client, room string) (left, lastOfUser bool) {
	m := r.rooms[room]
	if m == nil {
		return false, false
	}
	if _, ok := m[c.ConnID]; !ok {
		return false, false
	}
	delete(m, c.ConnID)
	if len(m) == 0 {
		delete(r.rooms, room)
	}
	if j := r.joined[c.ConnID]; j != nil {
		delete(j, room)
	}
	return true, !r.userInRoomLocked(room, c.UserID)
}

// Disconnect removes the connection from every room it joined and
// drops it from all indexes. Idempotent; safe to call twice. Returns
// the rooms where this was the user's last connection, plus whether
// the user now has no connections at all.
func (r *Registry) Disconnect(c *Client) (lastOfUserRooms []string, userGone bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byConn[c.ConnID]; !exists {
		return nil, false
	}
	for room := range r.joined[c.ConnID] {
		if _, last := r.leaveLocked(c, room); last {
			lastOfUserRooms = append(lastOfUserRooms, room)
		}
	}
	delete(r.joined, c.ConnID)
	delete(r.byConn, c.ConnID)
	if m := r.byUser[c.UserID]; m != nil {
		delete(m, c.ConnID)
		if len(m) == 0 {
			delete(r.byUser, c.UserID)
			userGone = true
		}
	}
	return lastOfUserRooms, userGone
}

// Members returns the room's current clients.
func (r *Registry) Members(room string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.rooms[room]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// MembersExcept returns the room's clients minus one connection (the
// broadcast originator).
func (r *Registry) MembersExcept(room, exceptConn string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.rooms[room]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for id, c := range m {
		if id == exceptConn {
			continue
		}
		out = append(out, c)
	}
	return out
}

// UserClients lists all live connections of a user (any room).
func (r *Registry) UserClients(user string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byUser[user]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// UserInRoom reports whether the user still holds any connection in
// the room. The presence reaper uses this as its liveness check.
func (r *Registry) UserInRoom(room, user string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.userInRoomLocked(room, user)
}

func (r *Registry) userInRoomLocked(room, user string) bool {
	for _, c := range r.rooms[room] {
		if c.UserID == user {
			return true
		}
	}
	return false
}

// InRoom reports whether the connection has joined the room.
func (r *Registry) InRoom(c *Client, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j := r.joined[c.ConnID]
	return j != nil && j[room]
}

// RoomCount returns the room's member count.
func (r *Registry) RoomCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// Close drops every connection; used at shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := make([]*Client, 0, len(r.byConn))
	for _, c := range r.byConn {
		conns = append(conns, c)
	}
	r.byConn = make(map[string]*Client)
	r.byUser = make(map[string]map[string]*Client)
	r.rooms = make(map[string]map[string]*Client)
	r.joined = make(map[string]map[string]bool)
	r.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
