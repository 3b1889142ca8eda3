package session

import (
	"sync"
	"time"
)

// Registry is the source of truth for room membership and last-known
// positions. All state is in-memory and lost on restart; reconnecting
// clients re-join and resend their position.
//
// A single mutex covers the whole registry. Mutations are short map
// operations and the expected scale is tens of rooms with dozens of
// members, so per-room locking buys nothing.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*room
	conns map[string]*connState
}

type room struct {
	members      map[string]*memberState
	lastActivity time.Time
}

type memberState struct {
	connID   string
	identity string
	name     string
	joinedAt time.Time
	position *PositionRecord
}

type connState struct {
	roomKey  string
	identity string
	name     string
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*room),
		conns: make(map[string]*connState),
	}
}

// Join adds the connection's identity to the room, replacing any existing
// membership record for that identity. If the connection was in a different
// room it is removed from it first; the vacated room key is returned so the
// caller can notify its remaining members. moved reports whether a room was
// actually vacated, since the empty workspace scope has an empty room key.
// Returns the full member list of the joined room.
func (r *Registry) Join(roomKey, connID, identity, name string) (members []Member, vacated string, moved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()

	if state, ok := r.conns[connID]; ok && state.roomKey != roomKey {
		if r.removeMember(state.roomKey, connID, state.identity) {
			vacated = state.roomKey
			moved = true
		}
	}

	rm, ok := r.rooms[roomKey]
	if !ok {
		rm = &room{members: make(map[string]*memberState)}
		r.rooms[roomKey] = rm
	}

	// Re-join (same identity, any connection) replaces the record rather
	// than duplicating it.
	rm.members[identity] = &memberState{
		connID:   connID,
		identity: identity,
		name:     name,
		joinedAt: now,
	}
	rm.lastActivity = now
	r.conns[connID] = &connState{roomKey: roomKey, identity: identity, name: name}

	members = make([]Member, 0, len(rm.members))
	for _, m := range rm.members {
		members = append(members, Member{Identity: m.identity, Name: m.name, JoinedAt: m.joinedAt})
	}
	return members, vacated, moved
}

// Leave removes the connection from its current room. Idempotent: a
// connection in no room is a no-op. Returns the vacated room key and
// whether the identity actually left it (false when a newer connection
// for the same identity has already replaced the membership record).
func (r *Registry) Leave(connID string) (roomKey, identity string, left bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.conns[connID]
	if !ok {
		return "", "", false
	}
	delete(r.conns, connID)

	left = r.removeMember(state.roomKey, connID, state.identity)
	return state.roomKey, state.identity, left
}

// removeMember deletes the identity's membership record if it is still
// owned by connID, and drops the room when it becomes empty. Caller holds
// the lock.
func (r *Registry) removeMember(roomKey, connID, identity string) bool {
	rm, ok := r.rooms[roomKey]
	if !ok {
		return false
	}

	m, ok := rm.members[identity]
	if !ok || m.connID != connID {
		return false
	}

	delete(rm.members, identity)
	rm.lastActivity = time.Now()
	if len(rm.members) == 0 {
		delete(r.rooms, roomKey)
	}
	return true
}

// UpdatePosition overwrites the stored position for the connection's
// identity and refreshes room activity. A connection in no room returns
// ok=false; that is a normal race with a leave, not an error.
func (r *Registry) UpdatePosition(connID string, position, target Vec3, color string) (roomKey string, rec PositionRecord, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, exists := r.conns[connID]
	if !exists {
		return "", PositionRecord{}, false
	}

	rm, exists := r.rooms[state.roomKey]
	if !exists {
		// Room was swept out from under the connection.
		delete(r.conns, connID)
		return "", PositionRecord{}, false
	}

	m, exists := rm.members[state.identity]
	if !exists || m.connID != connID {
		return "", PositionRecord{}, false
	}

	rec = PositionRecord{
		Identity:  state.identity,
		Position:  position,
		Target:    target,
		Color:     color,
		Timestamp: time.Now().UnixMilli(),
	}
	m.position = &rec
	rm.lastActivity = time.Now()

	return state.roomKey, rec, true
}

// RoomOf returns the room the connection currently belongs to
func (r *Registry) RoomOf(connID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	if _, exists := r.rooms[state.roomKey]; !exists {
		// Room was swept out from under the connection.
		delete(r.conns, connID)
		return "", false
	}
	return state.roomKey, true
}

// Snapshot returns the current positions of all members of a room that
// have sent at least one update. Independent of batching.
func (r *Registry) Snapshot(roomKey string) []PositionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, ok := r.rooms[roomKey]
	if !ok {
		return nil
	}

	records := make([]PositionRecord, 0, len(rm.members))
	for _, m := range rm.members {
		if m.position != nil {
			records = append(records, *m.position)
		}
	}
	return records
}

// Sweep deletes rooms whose last activity is older than the threshold,
// regardless of member count. This bounds memory under ungraceful
// disconnects that never produce a leave. Returns the removed room keys
// so the caller can evict the matching transport-level state too.
func (r *Registry) Sweep(threshold time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-threshold)
	var removed []string

	for key, rm := range r.rooms {
		if rm.lastActivity.Before(cutoff) {
			delete(r.rooms, key)
			removed = append(removed, key)
		}
	}

	if len(removed) > 0 {
		for connID, state := range r.conns {
			if _, ok := r.rooms[state.roomKey]; !ok {
				delete(r.conns, connID)
			}
		}
	}
	return removed
}

// Stats returns the current room and member counts
func (r *Registry) Stats() (rooms, members int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms = len(r.rooms)
	for _, rm := range r.rooms {
		members += len(rm.members)
	}
	return rooms, members
}
