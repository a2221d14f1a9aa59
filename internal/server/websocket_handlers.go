package server

import (
	"studybud/internal/featureflags"
	"studybud/internal/middleware"
	"studybud/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RoomFeedUpgrade checks the room exists before the websocket upgrade.
func (s *Server) RoomFeedUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired,
			models.NewValidationError("WebSocket upgrade required"))
	}
	userID, _ := c.Locals("userID").(uint)
	if !s.features.Enabled(featureflags.LiveFeed, userID) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Feature", featureflags.LiveFeed))
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	if _, err := s.roomRepo.GetByID(ctx, id); err != nil {
		return respondError(c, err)
	}

	c.Locals("roomID", id)
	return c.Next()
}

// RoomFeedHandler streams a room's realtime events to the connection.
// @Summary Room live feed
// @Description WebSocket stream of message_created, message_deleted and room_deleted events
// @Tags rooms
// @Param id path int true "Room ID"
// @Router /ws/rooms/{id} [get]
func (s *Server) RoomFeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		roomID, _ := conn.Locals("roomID").(uint)
		userID, _ := conn.Locals("userID").(uint)

		client, err := s.roomHub.Register(roomID, userID, conn)
		if err != nil {
			middleware.Logger.Warn("room feed registration failed",
				"room_id", roomID, "user_id", userID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		middleware.Logger.Debug("room feed joined",
			"room_id", roomID, "user_id", userID, "subscribers", s.roomHub.Subscribers(roomID))

		go client.WritePump()
		client.ReadPump()
	})
}
