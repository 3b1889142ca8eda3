package realtime

import "sync"

// Connection is one transport-level link with an authenticated identity
type Connection interface {
	ID() string
	Identity() string
	Name() string
	Send(data []byte) error
	Close() error
}

// Hub is the per-room multicast primitive. It tracks which connections
// can be reached in a room and nothing else; the session registry stays
// authoritative for membership.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Connection
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[string]Connection)}
}

// Join adds a connection to a room's multicast set
func (h *Hub) Join(roomKey string, conn Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomKey]
	if !ok {
		r = make(map[string]Connection)
		h.rooms[roomKey] = r
	}
	r[conn.ID()] = conn
}

// Leave removes a connection from a room's multicast set
func (h *Hub) Leave(roomKey, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomKey]
	if !ok {
		return
	}
	delete(r, connID)
	if len(r) == 0 {
		delete(h.rooms, roomKey)
	}
}

// Emit sends data to every connection in the room. Delivery is
// best-effort, at most once; a failed send is skipped, the next window's
// flush supersedes whatever was missed.
func (h *Hub) Emit(roomKey string, data []byte) {
	h.emit(roomKey, "", data)
}

// EmitExcept sends data to every connection in the room except one
func (h *Hub) EmitExcept(roomKey, exceptID string, data []byte) {
	h.emit(roomKey, exceptID, data)
}

func (h *Hub) emit(roomKey, exceptID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, conn := range h.rooms[roomKey] {
		if id == exceptID {
			continue
		}
		conn.Send(data)
	}
}

// CloseRoom closes and removes every connection in a room. Used when the
// registry sweeps a room so the hub cannot keep delivering its traffic to
// former members.
func (h *Hub) CloseRoom(roomKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomKey]
	if !ok {
		return
	}
	for _, conn := range r {
		conn.Close()
	}
	delete(h.rooms, roomKey)
}

// Drop removes a connection from whichever room still holds it. Used when
// the registry no longer tracks the connection and cannot name its room.
func (h *Hub) Drop(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for key, r := range h.rooms {
		if _, ok := r[connID]; ok {
			delete(r, connID)
			if len(r) == 0 {
				delete(h.rooms, key)
			}
		}
	}
}

// Stats returns the number of rooms and connections in the hub
func (h *Hub) Stats() (rooms, conns int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms = len(h.rooms)
	for _, r := range h.rooms {
		conns += len(r)
	}
	return rooms, conns
}

// CloseAll closes every connection. Called after the batcher has been
// drained at shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for key, r := range h.rooms {
		for _, conn := range r {
			conn.Close()
		}
		delete(h.rooms, key)
	}
}
