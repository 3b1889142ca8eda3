package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/graphscape/collab-api/internal/auth"
)

// TokenHandlers mints development tokens. Production deployments leave
// this disabled; credentials come from the auth service.
type TokenHandlers struct {
	verifier *auth.Verifier
	tokenTTL time.Duration
}

// NewTokenHandlers creates new token handlers
func NewTokenHandlers(verifier *auth.Verifier, tokenTTL time.Duration) *TokenHandlers {
	return &TokenHandlers{verifier: verifier, tokenTTL: tokenTTL}
}

// MintDevToken issues a signed token for a user id
func (h *TokenHandlers) MintDevToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string `json:"user_id"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}
	if req.UserID == "" {
		WriteError(w, http.StatusBadRequest, fmt.Errorf("user_id is required"))
		return
	}

	token, err := h.verifier.GenerateToken(req.UserID, req.DisplayName, h.tokenTTL)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err)
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"token":   token,
		"user_id": req.UserID,
	}, http.StatusOK)
}
