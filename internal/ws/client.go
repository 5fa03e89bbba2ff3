package ws

import (
	"time"

	"github.com/Abubakar312/chat-app-backend/internal/config"
	"github.com/Abubakar312/chat-app-backend/internal/logging"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Client is one socket connection of an authenticated user.
type Client struct {
	ID     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	config config.WebSocketConfig
	logger zerolog.Logger
}

func NewClient(id, userID string, hub *Hub, conn *websocket.Conn, cfg config.WebSocketConfig, logger zerolog.Logger) *Client {
	return &Client{
		ID:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, cfg.SendBuffer),
		userID: userID,
		config: cfg,
		logger: logger.With().Str(logging.FieldClientID, id).Str(logging.FieldUserID, userID).Logger(),
	}
}

func (c *Client) UserID() string {
	return c.userID
}

// ReadPump hands every frame to handler in arrival order and unregisters the
// client when the connection ends.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket read error")
			}
			break
		}
		handler(c, message)
	}
}

// WritePump drains the send buffer onto the connection and keeps it alive
// with pings. The hub closes send to end it.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
