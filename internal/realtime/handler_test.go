package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphscape/collab-api/internal/auth"
	"github.com/graphscape/collab-api/internal/config"
)

func testRealtimeConfig() config.RealtimeConfig {
	return config.RealtimeConfig{
		AllowedOrigins: []string{"*"},
		MaxMessageSize: 64 * 1024,
		SendBufferSize: 16,
		WriteWait:      time.Second,
		PongWait:       60 * time.Second,
	}
}

func TestServeWS_Handshake(t *testing.T) {
	c, _ := newTestController(t, time.Hour)
	verifier, err := auth.NewVerifier("test-secret-key-for-testing-only")
	require.NoError(t, err)

	srv := httptest.NewServer(c.ServeWS(verifier, testRealtimeConfig()))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	t.Run("rejects missing credential", func(t *testing.T) {
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Nil(t, conn)
	})

	t.Run("rejects expired credential", func(t *testing.T) {
		expired, err := verifier.GenerateToken("alice", "Alice", -time.Hour)
		require.NoError(t, err)

		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token="+expired, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects malformed credential", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=not-a-jwt", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("accepts valid credential and joins a room", func(t *testing.T) {
		token, err := verifier.GenerateToken("alice", "Alice", time.Hour)
		require.NoError(t, err)

		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
		require.NoError(t, err)
		defer conn.Close()

		join, err := Encode(MsgJoinRoom, JoinRoomRequest{WorkspaceID: "ws-1"})
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, join))

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		env, err := DecodeEnvelope(data)
		require.NoError(t, err)
		assert.Equal(t, MsgRoomJoined, env.Type)

		var joined RoomJoined
		require.NoError(t, env.DecodePayload(&joined))
		assert.Equal(t, "ws-1", joined.RoomKey)
		require.Len(t, joined.Members, 1)
		assert.Equal(t, "alice", joined.Members[0].Identity)
	})
}
