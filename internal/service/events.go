package service

import "context"

// Realtime event types delivered to room subscribers.
const (
	EventMessageCreated = "message_created"
	EventMessageDeleted = "message_deleted"
	EventRoomDeleted    = "room_deleted"
)

// RoomEventPublisher fans room events out to live subscribers.
type RoomEventPublisher interface {
	PublishRoomEvent(ctx context.Context, roomID uint, eventType string, payload any)
}

type noopPublisher struct{}

func (noopPublisher) PublishRoomEvent(context.Context, uint, string, any) {}

func publisherOrNoop(p RoomEventPublisher) RoomEventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
