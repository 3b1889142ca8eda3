package session

import "time"

// Vec3 is a position or look-at target in the 3D graph scene
type Vec3 struct {
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
	Z float64 `msgpack:"z" json:"z"`
}

// PositionRecord is the latest known camera state for one identity.
// No history is kept; every update overwrites the previous record.
type PositionRecord struct {
	Identity  string `msgpack:"identity" json:"identity"`
	Position  Vec3   `msgpack:"position" json:"position"`
	Target    Vec3   `msgpack:"target" json:"target"`
	Color     string `msgpack:"color,omitempty" json:"color,omitempty"`
	Timestamp int64  `msgpack:"timestamp" json:"timestamp"`
}

// Member describes one room membership record
type Member struct {
	Identity string    `msgpack:"identity" json:"identity"`
	Name     string    `msgpack:"name,omitempty" json:"name,omitempty"`
	JoinedAt time.Time `msgpack:"joinedAt" json:"joined_at"`
}

// RoomKey builds the room key for a workspace scope and optional viewpoint
// sub-scope. An empty workspace ID is not rejected here; joins without a
// workspace land in the room keyed by the empty scope.
func RoomKey(workspaceID, viewpointID string) string {
	if viewpointID == "" {
		return workspaceID
	}
	return workspaceID + ":" + viewpointID
}
