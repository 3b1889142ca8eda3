package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/graphscape/collab-api/internal/logging"
	"github.com/graphscape/collab-api/internal/metrics"
	"github.com/graphscape/collab-api/internal/session"
)

// Controller wires transport events to the session registry and the
// position batcher. Handlers are isolated per connection: no failure on
// one connection may crash the controller or touch another room's state.
type Controller struct {
	registry *session.Registry
	batcher  *session.Batcher
	hub      *Hub
	logger   *logging.Logger
}

// NewController creates a controller around an explicit registry and hub.
// The batcher is owned by the controller; its flushes broadcast one
// positions-batch event per room per window.
func NewController(registry *session.Registry, hub *Hub, logger *logging.Logger, batchWindow time.Duration) *Controller {
	c := &Controller{
		registry: registry,
		hub:      hub,
		logger:   logger,
	}
	c.batcher = session.NewBatcher(batchWindow, c.broadcastBatch)
	return c
}

func (c *Controller) broadcastBatch(roomKey string, records []session.PositionRecord) {
	data, err := Encode(MsgPositionsBatch, PositionsBatch{Records: records})
	if err != nil {
		c.logger.Error("Failed to encode positions batch", err, map[string]interface{}{"room": roomKey})
		return
	}
	c.hub.Emit(roomKey, data)
	metrics.RecordBatchFlush(len(records))
	metrics.SetPendingBatches(c.batcher.PendingRooms())
}

// HandleMessage dispatches one inbound wire message
func (c *Controller) HandleMessage(conn Connection, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Handler panic", nil, map[string]interface{}{
				"panic":  fmt.Sprint(r),
				"connId": conn.ID(),
			})
			c.sendError(conn, "internal", "internal error")
		}
	}()

	env, err := DecodeEnvelope(data)
	if err != nil {
		c.logger.Warn("Invalid message", map[string]interface{}{"connId": conn.ID(), "error": err.Error()})
		c.sendError(conn, "decode", "invalid message")
		return
	}
	metrics.RecordMessage(env.Type)

	switch env.Type {
	case MsgJoinRoom:
		c.handleJoin(conn, env)
	case MsgLeaveRoom:
		c.removeFromRoom(conn)
	case MsgPositionUpdate:
		c.handlePositionUpdate(conn, env)
	case MsgRequestAllPositions:
		c.handleRequestAllPositions(conn)
	case MsgArtifactCreated, MsgArtifactUpdated, MsgArtifactDeleted:
		c.handleArtifactEvent(conn, env)
	default:
		c.sendError(conn, "unknown-type", "unknown message type: "+env.Type)
	}
}

func (c *Controller) handleJoin(conn Connection, env *Envelope) {
	var req JoinRoomRequest
	if err := env.DecodePayload(&req); err != nil {
		c.sendError(conn, MsgJoinRoom, "malformed join request")
		return
	}

	if req.WorkspaceID == "" {
		// Accepted with a degraded scope: all such clients land in the
		// room keyed by the empty workspace.
		c.logger.Warn("Join without workspace id", map[string]interface{}{
			"connId":   conn.ID(),
			"identity": conn.Identity(),
		})
	}

	roomKey := session.RoomKey(req.WorkspaceID, req.ViewpointID)
	members, vacated, moved := c.registry.Join(roomKey, conn.ID(), conn.Identity(), conn.Name())

	if moved {
		c.hub.Leave(vacated, conn.ID())
		c.notifyDeparture(vacated, conn.Identity())
	}
	c.hub.Join(roomKey, conn)

	ack, err := Encode(MsgRoomJoined, RoomJoined{RoomKey: roomKey, Members: members})
	if err != nil {
		c.logger.Error("Failed to encode join ack", err, map[string]interface{}{"room": roomKey})
		c.sendError(conn, MsgJoinRoom, "failed to join room")
		return
	}
	conn.Send(ack)

	if notice, err := Encode(MsgUserJoined, UserEvent{Identity: conn.Identity()}); err == nil {
		c.hub.EmitExcept(roomKey, conn.ID(), notice)
	}

	c.logger.Debug("Joined room", map[string]interface{}{
		"room":     roomKey,
		"identity": conn.Identity(),
		"members":  len(members),
	})
	c.updateGauges()
}

// removeFromRoom handles both an explicit leave-room and a disconnect.
// Idempotent: a connection in no room is a no-op. Untracked connections
// report an empty identity; the empty workspace scope has an empty room
// key, so the room key cannot serve as the signal here.
func (c *Controller) removeFromRoom(conn Connection) {
	roomKey, identity, left := c.registry.Leave(conn.ID())
	if identity == "" {
		// The registry may have swept the room out from under a still-open
		// connection; make sure the hub lets go of it too.
		c.hub.Drop(conn.ID())
		return
	}

	c.hub.Leave(roomKey, conn.ID())
	if left {
		c.notifyDeparture(roomKey, identity)
	}
	c.updateGauges()
}

// Disconnect is invoked by the transport when a connection ends for any
// reason; it behaves exactly like an explicit leave.
func (c *Controller) Disconnect(conn Connection) {
	c.removeFromRoom(conn)
}

func (c *Controller) notifyDeparture(roomKey, identity string) {
	if notice, err := Encode(MsgUserLeft, UserEvent{Identity: identity}); err == nil {
		c.hub.Emit(roomKey, notice)
	}
}

func (c *Controller) handlePositionUpdate(conn Connection, env *Envelope) {
	var upd PositionUpdate
	if err := env.DecodePayload(&upd); err != nil {
		c.sendError(conn, MsgPositionUpdate, "malformed position update")
		return
	}

	roomKey, rec, ok := c.registry.UpdatePosition(conn.ID(), upd.Position, upd.Target, upd.Color)
	if !ok {
		// Normal race with a leave; not an error.
		metrics.RecordDroppedUpdate()
		return
	}

	c.batcher.Add(roomKey, rec)
	metrics.SetPendingBatches(c.batcher.PendingRooms())
}

func (c *Controller) handleRequestAllPositions(conn Connection) {
	roomKey, ok := c.registry.RoomOf(conn.ID())
	if !ok {
		return
	}

	records := c.registry.Snapshot(roomKey)
	reply, err := Encode(MsgPositionsBatch, PositionsBatch{Records: records})
	if err != nil {
		c.sendError(conn, MsgRequestAllPositions, "failed to collect positions")
		return
	}
	conn.Send(reply)
}

func (c *Controller) handleArtifactEvent(conn Connection, env *Envelope) {
	roomKey, ok := c.registry.RoomOf(conn.ID())
	if !ok {
		return
	}

	var evt ArtifactEvent
	if err := env.DecodePayload(&evt); err != nil {
		c.sendError(conn, env.Type, "malformed artifact event")
		return
	}

	evt.ActingIdentity = conn.Identity()
	relay, err := Encode(env.Type, evt)
	if err != nil {
		c.sendError(conn, env.Type, "failed to relay artifact event")
		return
	}
	c.hub.EmitExcept(roomKey, conn.ID(), relay)
}

func (c *Controller) sendError(conn Connection, code, message string) {
	if data, err := Encode(MsgError, ErrorEvent{Message: message, Code: code}); err == nil {
		conn.Send(data)
	}
}

// SweepStale removes rooms inactive beyond the threshold and evicts their
// connections from the hub in the same pass, so the hub never keeps
// delivering a swept room's traffic. Returns the number of rooms removed.
func (c *Controller) SweepStale(threshold time.Duration) int {
	removed := c.registry.Sweep(threshold)
	for _, key := range removed {
		c.hub.CloseRoom(key)
	}
	if len(removed) > 0 {
		metrics.RecordSweptRooms(len(removed))
		c.updateGauges()
	}
	return len(removed)
}

// RunSweeper periodically removes rooms inactive beyond the threshold,
// bounding memory under ungraceful disconnects. Blocks until ctx is done.
func (c *Controller) RunSweeper(ctx context.Context, interval, threshold time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := c.SweepStale(threshold); removed > 0 {
				c.logger.Info("Swept stale rooms", map[string]interface{}{"removed": removed})
			}
		}
	}
}

// Shutdown flushes every pending batch, then discards batcher state.
// Must run before the transport is closed so the last window of updates
// still reaches clients.
func (c *Controller) Shutdown() {
	c.batcher.FlushAll()
	c.batcher.Clear()
}

func (c *Controller) updateGauges() {
	rooms, members := c.registry.Stats()
	metrics.SetSessionGauges(rooms, members)
}
