package realtime

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/graphscape/collab-api/internal/session"
)

// Client → server message types
const (
	MsgJoinRoom            = "join-room"
	MsgLeaveRoom           = "leave-room"
	MsgPositionUpdate      = "position-update"
	MsgRequestAllPositions = "request-all-positions"
	MsgArtifactCreated     = "artifact-created"
	MsgArtifactUpdated     = "artifact-updated"
	MsgArtifactDeleted     = "artifact-deleted"
)

// Server → client message types. Artifact events are relayed under their
// client-side names.
const (
	MsgRoomJoined     = "room-joined"
	MsgUserJoined     = "user-joined"
	MsgUserLeft       = "user-left"
	MsgPositionsBatch = "positions-batch"
	MsgError          = "error"
)

// Envelope frames every message on the wire. Payloads are MessagePack:
// compact enough for high-frequency position traffic and round-trips
// nested float vectors, strings and timestamps losslessly.
type Envelope struct {
	Type string             `msgpack:"type"`
	Data msgpack.RawMessage `msgpack:"data,omitempty"`
}

// JoinRoomRequest asks to enter the room for a workspace and optional
// viewpoint sub-scope
type JoinRoomRequest struct {
	WorkspaceID string `msgpack:"workspaceId"`
	ViewpointID string `msgpack:"viewpointId,omitempty"`
}

// RoomJoined acknowledges a join to the requester with the current members
type RoomJoined struct {
	RoomKey string           `msgpack:"roomKey"`
	Members []session.Member `msgpack:"members"`
}

// UserEvent announces an arrival or departure to a room
type UserEvent struct {
	Identity string `msgpack:"identity"`
}

// PositionUpdate carries one camera state sample
type PositionUpdate struct {
	Position session.Vec3 `msgpack:"position"`
	Target   session.Vec3 `msgpack:"target"`
	Color    string       `msgpack:"color,omitempty"`
}

// PositionsBatch carries one coalesced window of positions, or the reply
// to an explicit request-all-positions
type PositionsBatch struct {
	Records []session.PositionRecord `msgpack:"records"`
}

// ArtifactEvent relays an annotation change to the rest of the room.
// ActingIdentity is filled in by the server.
type ArtifactEvent struct {
	ID             string `msgpack:"id"`
	Name           string `msgpack:"name,omitempty"`
	ActingIdentity string `msgpack:"actingIdentity,omitempty"`
}

// ErrorEvent reports a non-fatal failure to the originating connection
type ErrorEvent struct {
	Message string `msgpack:"message"`
	Code    string `msgpack:"code,omitempty"`
}

// Encode marshals a payload into a framed wire message
func Encode(msgType string, payload interface{}) ([]byte, error) {
	env := Envelope{Type: msgType}

	if payload != nil {
		data, err := msgpack.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", msgType, err)
		}
		env.Data = data
	}

	framed, err := msgpack.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", msgType, err)
	}
	return framed, nil
}

// DecodeEnvelope unmarshals the outer frame of a wire message
func DecodeEnvelope(data []byte) (*Envelope, error) {
	env := &Envelope{}
	if err := msgpack.Unmarshal(data, env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("decode envelope: missing type")
	}
	return env, nil
}

// DecodePayload unmarshals the envelope payload into v. An absent payload
// leaves v at its zero value.
func (e *Envelope) DecodePayload(v interface{}) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := msgpack.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
