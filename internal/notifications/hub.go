package notifications

import (
	"context"
	"errors"
	"sync"

	"studybud/internal/middleware"
	"studybud/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerRoom = 500
	maxTotalConns   = 10000
)

// ErrHubClosed is returned by Register after Shutdown.
var ErrHubClosed = errors.New("room hub is shut down")

// RoomHub maps roomID to the websocket clients following that room.
type RoomHub struct {
	mu         sync.RWMutex
	rooms      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
	log        *observability.WSLogger
}

// NewRoomHub creates an empty RoomHub.
func NewRoomHub() *RoomHub {
	return &RoomHub{
		rooms: make(map[uint]map[*Client]struct{}),
		log:   observability.NewWSLogger("room hub"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *RoomHub) Name() string { return "room hub" }

// Register adds a connection to roomID's subscribers.
func (h *RoomHub) Register(roomID, userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.rooms[roomID]
	if !ok {
		m = make(map[*Client]struct{})
		h.rooms[roomID] = m
	}
	if len(m) >= maxConnsPerRoom {
		return nil, errors.New("room connection limit reached")
	}

	client := NewClient(h, conn, roomID, userID)
	m[client] = struct{}{}
	h.totalConns++

	observability.IncrementRoomConnections(roomID)
	h.log.LogConnect(context.Background(), userID, roomID)
	return client, nil
}

// UnregisterClient removes client and closes its send channel. Safe to call twice.
func (h *RoomHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.rooms[client.RoomID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.rooms, client.RoomID)
	}
	h.totalConns--
	close(client.Send)

	observability.DecrementRoomConnections(client.RoomID)
	h.log.LogDisconnect(context.Background(), client.UserID, client.RoomID, "unregistered")
}

// Broadcast sends message to every client following roomID.
func (h *RoomHub) Broadcast(roomID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		c.TrySend(message)
	}
}

// Subscribers returns the number of clients following roomID.
func (h *RoomHub) Subscribers(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// StartWiring subscribes to room channels through n and forwards each
// message to the matching room's clients.
func (h *RoomHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartRoomSubscriber(ctx, func(channel, payload string) {
		roomID, ok := ParseRoomChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid room channel", "channel", channel)
			return
		}
		h.Broadcast(roomID, []byte(payload))
	})
}

// Shutdown drops every client. Closing Send makes each WritePump send a
// close frame and exit.
func (h *RoomHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for roomID, clients := range h.rooms {
		for client := range clients {
			close(client.Send)
			observability.DecrementRoomConnections(roomID)
		}
		delete(h.rooms, roomID)
	}
	h.totalConns = 0
	return nil
}
