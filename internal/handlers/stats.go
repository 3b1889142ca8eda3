package handlers

import (
	"net/http"

	"github.com/graphscape/collab-api/internal/realtime"
	"github.com/graphscape/collab-api/internal/session"
)

// StatsHandlers exposes session counters for dashboards
type StatsHandlers struct {
	registry *session.Registry
	hub      *realtime.Hub
}

// NewStatsHandlers creates new stats handlers
func NewStatsHandlers(registry *session.Registry, hub *realtime.Hub) *StatsHandlers {
	return &StatsHandlers{registry: registry, hub: hub}
}

// GetStats returns current room, member and connection counts
func (h *StatsHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	rooms, members := h.registry.Stats()
	hubRooms, conns := h.hub.Stats()

	WriteSuccess(w, map[string]interface{}{
		"rooms":       rooms,
		"members":     members,
		"hub_rooms":   hubRooms,
		"connections": conns,
	}, http.StatusOK)
}
