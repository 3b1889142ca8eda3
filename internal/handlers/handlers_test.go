package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/graphscape/collab-api/internal/auth"
	"github.com/graphscape/collab-api/internal/realtime"
	"github.com/graphscape/collab-api/internal/session"
)

func TestHealth(t *testing.T) {
	r := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	Health(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected ok, got %v", body["status"])
	}
}

func TestGetStats(t *testing.T) {
	registry := session.NewRegistry()
	registry.Join("ws-1", "conn-a", "alice", "Alice")
	registry.Join("ws-1", "conn-b", "bob", "Bob")
	registry.Join("ws-2", "conn-c", "carol", "Carol")

	h := NewStatsHandlers(registry, realtime.NewHub())

	r := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	h.GetStats(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["rooms"] != float64(2) {
		t.Errorf("Expected 2 rooms, got %v", body["rooms"])
	}
	if body["members"] != float64(3) {
		t.Errorf("Expected 3 members, got %v", body["members"])
	}
}

func TestMintDevToken(t *testing.T) {
	verifier, err := auth.NewVerifier("test-secret-key-for-testing-only")
	if err != nil {
		t.Fatalf("NewVerifier failed: %v", err)
	}
	h := NewTokenHandlers(verifier, time.Hour)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{
			name:           "valid request",
			body:           `{"user_id":"alice","display_name":"Alice"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing user id",
			body:           `{"display_name":"Alice"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid body",
			body:           `{`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/v1/auth/dev-token", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			h.MintDevToken(w, r)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.expectedStatus == http.StatusOK {
				var body map[string]interface{}
				if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
					t.Fatalf("Failed to parse response: %v", err)
				}
				token, _ := body["token"].(string)
				if token == "" {
					t.Fatal("Expected token in response")
				}

				claims, err := verifier.ValidateToken(token)
				if err != nil {
					t.Fatalf("Minted token did not validate: %v", err)
				}
				if claims.UserID != "alice" {
					t.Errorf("Expected alice, got %s", claims.UserID)
				}
			}
		})
	}
}
