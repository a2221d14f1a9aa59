package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoomsCreated counts rooms created through the API.
	RoomsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studybud_rooms_created_total",
		Help: "Total number of rooms created",
	})

	// MessagesPosted counts messages posted to rooms.
	MessagesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studybud_messages_posted_total",
		Help: "Total number of messages posted",
	})

	// Deletions counts delete requests by resource and the stage they ended in.
	Deletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studybud_deletions_total",
		Help: "Total number of delete requests by resource and final stage",
	}, []string{"resource", "stage"})

	// AuthAttempts counts login attempts by result.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studybud_auth_attempts_total",
		Help: "Total number of login attempts by result",
	}, []string{"result"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studybud_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// WebSocketRoomConnections is the gauge of connections per room.
	WebSocketRoomConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "studybud_websocket_room_connections",
		Help: "Number of WebSocket connections per room",
	}, []string{"room_id"})

	// WebSocketBackpressureDrops counts messages dropped for slow websocket clients.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studybud_websocket_backpressure_drops_total",
		Help: "Total websocket messages dropped by hub and reason",
	}, []string{"hub", "reason"})

	// RoomEvents counts realtime events fanned out to room subscribers.
	RoomEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studybud_room_events_total",
		Help: "Total realtime room events by type",
	}, []string{"event_type"})
)

// RecordDeletion increments the deletions counter.
func RecordDeletion(resource, stage string) {
	Deletions.WithLabelValues(resource, stage).Inc()
}

// RecordAuthAttempt increments the login attempts counter.
func RecordAuthAttempt(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	AuthAttempts.WithLabelValues(result).Inc()
}

// RecordRedisError increments the Redis error counter for operation.
func RecordRedisError(operation string) {
	RedisErrorRate.WithLabelValues(operation).Inc()
}

// IncrementRoomConnections tracks a websocket joining a room.
func IncrementRoomConnections(roomID uint) {
	WebSocketRoomConnections.WithLabelValues(strconv.FormatUint(uint64(roomID), 10)).Inc()
}

// DecrementRoomConnections tracks a websocket leaving a room.
func DecrementRoomConnections(roomID uint) {
	WebSocketRoomConnections.WithLabelValues(strconv.FormatUint(uint64(roomID), 10)).Dec()
}
