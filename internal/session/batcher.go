package session

import (
	"sync"
	"time"
)

// Flusher receives one coalesced batch per room per window
type Flusher func(roomKey string, records []PositionRecord)

// Batcher decouples client update frequency from broadcast frequency.
// Updates are keyed by identity per room and only the latest value inside
// a window survives; one flush per room per window bounds message volume
// no matter how fast clients send.
type Batcher struct {
	mu      sync.Mutex
	window  time.Duration
	flush   Flusher
	pending map[string]map[string]PositionRecord
	timers  map[string]*time.Timer
}

// NewBatcher creates a batcher that invokes flush once per room per window
func NewBatcher(window time.Duration, flush Flusher) *Batcher {
	return &Batcher{
		window:  window,
		flush:   flush,
		pending: make(map[string]map[string]PositionRecord),
		timers:  make(map[string]*time.Timer),
	}
}

// Add stores the record in the room's pending batch, overwriting any
// earlier unflushed value for the same identity. The first update of a
// window arms the room's flush timer.
func (b *Batcher) Add(roomKey string, rec PositionRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch, ok := b.pending[roomKey]
	if !ok {
		batch = make(map[string]PositionRecord)
		b.pending[roomKey] = batch
	}
	batch[rec.Identity] = rec

	if _, running := b.timers[roomKey]; !running {
		b.timers[roomKey] = time.AfterFunc(b.window, func() {
			b.flushRoom(roomKey)
		})
	}
}

// flushRoom atomically detaches the room's pending batch and hands it to
// the flusher. A fire that finds nothing pending (raced by FlushAll or
// Clear) is a no-op; an empty batch is never broadcast.
func (b *Batcher) flushRoom(roomKey string) {
	b.mu.Lock()
	batch := b.pending[roomKey]
	delete(b.pending, roomKey)
	if t, ok := b.timers[roomKey]; ok {
		t.Stop()
		delete(b.timers, roomKey)
	}
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	records := make([]PositionRecord, 0, len(batch))
	for _, rec := range batch {
		records = append(records, rec)
	}
	b.flush(roomKey, records)
}

// FlushAll immediately flushes every room with a pending batch. Used at
// shutdown so the last window of updates is not silently dropped.
func (b *Batcher) FlushAll() {
	b.mu.Lock()
	keys := make([]string, 0, len(b.pending))
	for key := range b.pending {
		keys = append(keys, key)
	}
	b.mu.Unlock()

	for _, key := range keys {
		b.flushRoom(key)
	}
}

// Clear cancels all timers and discards pending data without broadcasting
func (b *Batcher) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range b.timers {
		t.Stop()
	}
	b.pending = make(map[string]map[string]PositionRecord)
	b.timers = make(map[string]*time.Timer)
}

// PendingRooms returns the number of rooms with an unflushed batch
func (b *Batcher) PendingRooms() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
