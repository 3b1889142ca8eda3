package session

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flushRecorder struct {
	mu      sync.Mutex
	flushes []flushedBatch
}

type flushedBatch struct {
	roomKey string
	records []PositionRecord
}

func (f *flushRecorder) flush(roomKey string, records []PositionRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes = append(f.flushes, flushedBatch{roomKey: roomKey, records: records})
}

func (f *flushRecorder) get() []flushedBatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]flushedBatch(nil), f.flushes...)
}

func rec(identity string, z float64) PositionRecord {
	return PositionRecord{
		Identity:  identity,
		Position:  Vec3{Z: z},
		Timestamp: time.Now().UnixMilli(),
	}
}

func TestBatcher_CoalescesPerIdentity(t *testing.T) {
	recorder := &flushRecorder{}
	b := NewBatcher(20*time.Millisecond, recorder.flush)

	b.Add("ws-1", rec("alice", 10))
	b.Add("ws-1", rec("bob", 5))
	b.Add("ws-1", rec("alice", 20))
	b.Add("ws-1", rec("alice", 30))

	time.Sleep(80 * time.Millisecond)

	flushes := recorder.get()
	require.Len(t, flushes, 1)
	assert.Equal(t, "ws-1", flushes[0].roomKey)

	records := flushes[0].records
	require.Len(t, records, 2)
	sort.Slice(records, func(i, j int) bool { return records[i].Identity < records[j].Identity })
	assert.Equal(t, "alice", records[0].Identity)
	assert.Equal(t, 30.0, records[0].Position.Z)
	assert.Equal(t, "bob", records[1].Identity)
}

func TestBatcher_SeparateWindowsSeparateFlushes(t *testing.T) {
	recorder := &flushRecorder{}
	b := NewBatcher(20*time.Millisecond, recorder.flush)

	b.Add("ws-1", rec("alice", 1))
	time.Sleep(60 * time.Millisecond)
	b.Add("ws-1", rec("alice", 2))
	time.Sleep(60 * time.Millisecond)

	flushes := recorder.get()
	require.Len(t, flushes, 2)
	assert.Equal(t, 1.0, flushes[0].records[0].Position.Z)
	assert.Equal(t, 2.0, flushes[1].records[0].Position.Z)
}

func TestBatcher_RoomsFlushIndependently(t *testing.T) {
	recorder := &flushRecorder{}
	b := NewBatcher(20*time.Millisecond, recorder.flush)

	b.Add("ws-1", rec("alice", 1))
	b.Add("ws-2", rec("bob", 2))

	time.Sleep(80 * time.Millisecond)

	flushes := recorder.get()
	require.Len(t, flushes, 2)
	rooms := map[string]bool{}
	for _, f := range flushes {
		rooms[f.roomKey] = true
		assert.Len(t, f.records, 1)
	}
	assert.True(t, rooms["ws-1"])
	assert.True(t, rooms["ws-2"])
}

func TestBatcher_FlushAll(t *testing.T) {
	recorder := &flushRecorder{}
	b := NewBatcher(time.Hour, recorder.flush)

	b.Add("ws-1", rec("alice", 1))
	b.Add("ws-2", rec("bob", 2))

	b.FlushAll()

	assert.Len(t, recorder.get(), 2)
	assert.Zero(t, b.PendingRooms())

	// Nothing left to flush afterwards.
	b.FlushAll()
	assert.Len(t, recorder.get(), 2)
}

func TestBatcher_ClearDropsWithoutBroadcast(t *testing.T) {
	recorder := &flushRecorder{}
	b := NewBatcher(20*time.Millisecond, recorder.flush)

	b.Add("ws-1", rec("alice", 1))
	b.Clear()

	time.Sleep(60 * time.Millisecond)

	assert.Empty(t, recorder.get())
	assert.Zero(t, b.PendingRooms())
}

func TestBatcher_EmptyDetachIsNoOp(t *testing.T) {
	recorder := &flushRecorder{}
	b := NewBatcher(time.Hour, recorder.flush)

	b.Add("ws-1", rec("alice", 1))
	b.flushRoom("ws-1")
	// A raced second fire finds nothing pending and must not broadcast.
	b.flushRoom("ws-1")

	assert.Len(t, recorder.get(), 1)
}
