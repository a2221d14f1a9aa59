package notifications

import (
	"context"
	"encoding/json"

	"studybud/internal/middleware"
	"studybud/internal/observability"
)

// RoomEvent is the envelope delivered to room subscribers.
type RoomEvent struct {
	Type    string `json:"type"`
	RoomID  uint   `json:"room_id"`
	Payload any    `json:"payload"`
}

// RoomEvents publishes room events. With Redis available events travel through
// the notifier so every instance's hub receives them; otherwise they go
// straight to the local hub.
type RoomEvents struct {
	hub      *RoomHub
	notifier *Notifier
}

// NewRoomEvents creates a publisher over hub and notifier. notifier may be nil.
func NewRoomEvents(hub *RoomHub, notifier *Notifier) *RoomEvents {
	return &RoomEvents{hub: hub, notifier: notifier}
}

// PublishRoomEvent marshals the event and fans it out. Failures are logged, never returned.
func (e *RoomEvents) PublishRoomEvent(ctx context.Context, roomID uint, eventType string, payload any) {
	data, err := json.Marshal(RoomEvent{Type: eventType, RoomID: roomID, Payload: payload})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "marshal room event", "type", eventType, "error", err)
		return
	}
	observability.RoomEvents.WithLabelValues(eventType).Inc()

	if e.notifier.Enabled() {
		err := e.notifier.PublishRoom(ctx, roomID, string(data))
		if err == nil {
			return
		}
		observability.RecordRedisError("publish")
		middleware.Logger.WarnContext(ctx, "publish room event failed, delivering locally",
			"room_id", roomID, "error", err)
	}
	if e.hub != nil {
		e.hub.Broadcast(roomID, data)
	}
}
