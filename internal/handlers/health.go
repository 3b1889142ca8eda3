package handlers

import (
	"net/http"
	"time"
)

// Health responds to liveness probes
func Health(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]interface{}{
		"status":    "ok",
		"service":   "graphscape-collab-api",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}
