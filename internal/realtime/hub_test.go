package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConn struct {
	id       string
	identity string
	name     string
	mu       sync.Mutex
	received [][]byte
	closed   bool
}

func newMockConn(id, identity string) *mockConn {
	return &mockConn{id: id, identity: identity, name: identity}
}

func (m *mockConn) ID() string       { return m.id }
func (m *mockConn) Identity() string { return m.identity }
func (m *mockConn) Name() string     { return m.name }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) getReceived() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.received...)
}

// envelopes decodes every received message, optionally filtered by type
func (m *mockConn) envelopes(t *testing.T, msgType string) []*Envelope {
	t.Helper()
	var envs []*Envelope
	for _, data := range m.getReceived() {
		env, err := DecodeEnvelope(data)
		require.NoError(t, err)
		if msgType == "" || env.Type == msgType {
			envs = append(envs, env)
		}
	}
	return envs
}

func TestHub_EmitReachesRoomMembers(t *testing.T) {
	h := NewHub()
	a := newMockConn("conn-a", "alice")
	b := newMockConn("conn-b", "bob")
	other := newMockConn("conn-c", "carol")

	h.Join("ws-1", a)
	h.Join("ws-1", b)
	h.Join("ws-2", other)

	h.Emit("ws-1", []byte("hello"))

	assert.Len(t, a.getReceived(), 1)
	assert.Len(t, b.getReceived(), 1)
	assert.Empty(t, other.getReceived())
}

func TestHub_EmitExceptSkipsSender(t *testing.T) {
	h := NewHub()
	a := newMockConn("conn-a", "alice")
	b := newMockConn("conn-b", "bob")

	h.Join("ws-1", a)
	h.Join("ws-1", b)

	h.EmitExcept("ws-1", "conn-a", []byte("hello"))

	assert.Empty(t, a.getReceived())
	assert.Len(t, b.getReceived(), 1)
}

func TestHub_EmitToUnknownRoom(t *testing.T) {
	h := NewHub()
	h.Emit("nowhere", []byte("hello")) // must not panic
}

func TestHub_LeaveDropsEmptyRoom(t *testing.T) {
	h := NewHub()
	a := newMockConn("conn-a", "alice")

	h.Join("ws-1", a)
	rooms, conns := h.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, conns)

	h.Leave("ws-1", "conn-a")
	rooms, conns = h.Stats()
	assert.Zero(t, rooms)
	assert.Zero(t, conns)
}

func TestHub_CloseRoom(t *testing.T) {
	h := NewHub()
	a := newMockConn("conn-a", "alice")
	b := newMockConn("conn-b", "bob")
	other := newMockConn("conn-c", "carol")

	h.Join("ws-1", a)
	h.Join("ws-1", b)
	h.Join("ws-2", other)

	h.CloseRoom("ws-1")

	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.False(t, other.closed)

	rooms, conns := h.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, conns)

	h.CloseRoom("nowhere") // must not panic
}

func TestHub_DropFindsConnectionAcrossRooms(t *testing.T) {
	h := NewHub()
	a := newMockConn("conn-a", "alice")
	b := newMockConn("conn-b", "bob")

	h.Join("ws-1", a)
	h.Join("ws-2", b)

	h.Drop("conn-a")

	// Only the dropped connection's room goes away; no close is issued.
	assert.False(t, a.closed)
	rooms, conns := h.Stats()
	assert.Equal(t, 1, rooms)
	assert.Equal(t, 1, conns)

	h.Emit("ws-1", []byte("hello"))
	assert.Empty(t, a.getReceived())
}

func TestHub_CloseAll(t *testing.T) {
	h := NewHub()
	a := newMockConn("conn-a", "alice")
	b := newMockConn("conn-b", "bob")

	h.Join("ws-1", a)
	h.Join("ws-2", b)

	h.CloseAll()

	assert.True(t, a.closed)
	assert.True(t, b.closed)
	rooms, _ := h.Stats()
	assert.Zero(t, rooms)
}
