package realtime

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/graphscape/collab-api/internal/auth"
	"github.com/graphscape/collab-api/internal/config"
	"github.com/graphscape/collab-api/internal/metrics"
)

// ServeWS returns the handshake endpoint. The credential is verified
// before the upgrade: a rejected handshake never produces a connection.
func (c *Controller) ServeWS(verifier *auth.Verifier, cfg config.RealtimeConfig) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}

	connCfg := ConnConfig{
		MaxMessageSize: cfg.MaxMessageSize,
		SendBufferSize: cfg.SendBufferSize,
		WriteWait:      cfg.WriteWait,
		PongWait:       cfg.PongWait,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := verifier.Authenticate(r)
		if err != nil {
			metrics.RecordAuthRejection(rejectionReason(err))
			c.logger.Warn("Handshake rejected", map[string]interface{}{
				"reason": err.Error(),
				"remote": r.RemoteAddr,
			})
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			c.logger.Error("Upgrade failed", err, map[string]interface{}{"remote": r.RemoteAddr})
			return
		}

		conn := newWSConn(uuid.New().String(), identity, ws, c, connCfg, c.logger)
		metrics.ConnectionOpened()
		c.logger.Debug("Connection established", map[string]interface{}{
			"connId":   conn.ID(),
			"identity": conn.Identity(),
		})
		conn.Start()
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return "missing"
	case errors.Is(err, auth.ErrExpiredCredential):
		return "expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "signature"
	default:
		return "malformed"
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.HasPrefix(origin, a) {
				return true
			}
		}
		return false
	}
}
