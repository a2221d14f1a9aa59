package notifications

import (
	"time"

	"studybud/internal/middleware"
	"studybud/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Room feeds are server-to-client; clients only send control frames.
	maxMessageSize = 1024

	sendBuffer = 64
)

// WSHub is implemented by hubs that own Clients.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client is a middleman between one websocket connection and a hub.
type Client struct {
	Hub WSHub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// RoomID is the room whose feed this client follows.
	RoomID uint

	// UserID is zero for anonymous viewers.
	UserID uint
}

// NewClient creates a new Client instance
func NewClient(hub WSHub, conn *websocket.Conn, roomID, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		RoomID: roomID,
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
	}
}

// ReadPump drains the connection until it closes, then unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { _ = c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Warn("websocket read failed",
					"room_id", c.RoomID, "user_id", c.UserID, "error", err)
			}
			return
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues message without blocking. Messages for a full or closed client are dropped.
func (c *Client) TrySend(message []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- message:
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
		middleware.Logger.Warn("websocket buffer full, dropped message",
			"hub", c.Hub.Name(), "room_id", c.RoomID)
	}
}
