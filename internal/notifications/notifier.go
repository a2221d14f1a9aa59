// Package notifications delivers realtime room events to websocket subscribers.
package notifications

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	"studybud/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const roomChannelPrefix = "rooms:"

// Notifier publishes room events into Redis channels so every API instance sees them.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Enabled reports whether the notifier has a Redis connection.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishRoom sends payload to the room's channel.
func (n *Notifier) PublishRoom(ctx context.Context, roomID uint, payload string) error {
	if !n.Enabled() {
		return nil
	}
	return n.rdb.Publish(ctx, RoomChannel(roomID), payload).Err()
}

// StartRoomSubscriber subscribes to `rooms:*` and calls onMessage for each
// incoming message until ctx is cancelled.
func (n *Notifier) StartRoomSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, roomChannelPrefix+"*")
	// Wait for the subscription so publishes right after start are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe room events: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in room subscriber",
								"panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// RoomChannel derives the Redis channel name for a room.
func RoomChannel(roomID uint) string {
	return roomChannelPrefix + strconv.FormatUint(uint64(roomID), 10)
}

// ParseRoomChannel extracts the room ID from a channel named by RoomChannel.
func ParseRoomChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, roomChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
