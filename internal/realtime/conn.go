package realtime

import (
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/graphscape/collab-api/internal/auth"
	"github.com/graphscape/collab-api/internal/logging"
	"github.com/graphscape/collab-api/internal/metrics"
)

// ConnConfig holds per-connection transport limits
type ConnConfig struct {
	MaxMessageSize int64
	SendBufferSize int
	WriteWait      time.Duration
	PongWait       time.Duration
}

var errSendBufferFull = errors.New("send buffer full")

// wsConn adapts one gorilla WebSocket connection to the hub's Connection
// interface. A buffered send channel decouples broadcasts from slow
// clients; a full buffer drops the message rather than blocking the room.
type wsConn struct {
	id         string
	identity   string
	name       string
	ws         *websocket.Conn
	send       chan []byte
	controller *Controller
	cfg        ConnConfig
	logger     *logging.Logger
}

func newWSConn(id string, identity *auth.Identity, ws *websocket.Conn, controller *Controller, cfg ConnConfig, logger *logging.Logger) *wsConn {
	return &wsConn{
		id:         id,
		identity:   identity.UserID,
		name:       identity.DisplayName,
		ws:         ws,
		send:       make(chan []byte, cfg.SendBufferSize),
		controller: controller,
		cfg:        cfg,
		logger:     logger,
	}
}

func (c *wsConn) ID() string       { return c.id }
func (c *wsConn) Identity() string { return c.identity }
func (c *wsConn) Name() string     { return c.name }

func (c *wsConn) Send(data []byte) error {
	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}

// Start launches the read and write pumps
func (c *wsConn) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *wsConn) readPump() {
	defer func() {
		c.controller.Disconnect(c)
		c.ws.Close()
		metrics.ConnectionClosed()
	}()

	c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("Read error", map[string]interface{}{"connId": c.id, "error": err.Error()})
			}
			return
		}
		c.controller.HandleMessage(c, data)
	}
}

func (c *wsConn) writePump() {
	pingPeriod := c.cfg.PongWait * 9 / 10
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
