package server

import (
	"studybud/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetHome handles GET /api/rooms
// @Summary Browse rooms
// @Description Rooms matching q by topic, name or description, with the topic sidebar and recent activity
// @Tags rooms
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {object} service.HomeView
// @Router /rooms [get]
func (s *Server) GetHome(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	view, err := s.viewService.Home(ctx, c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// GetRoom handles GET /api/rooms/:id
// @Summary Get room
// @Tags rooms
// @Produce json
// @Param id path int true "Room ID"
// @Success 200 {object} service.RoomDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /rooms/{id} [get]
func (s *Server) GetRoom(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	detail, err := s.roomService.GetRoom(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// GetCreateRoomForm handles GET /api/rooms/create
// @Summary Room creation form
// @Tags rooms
// @Produce json
// @Success 200 {object} service.RoomFormData
// @Security BearerAuth
// @Router /rooms/create [get]
func (s *Server) GetCreateRoomForm(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	form, err := s.roomService.RoomForm(ctx, actor(c), nil)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(form)
}

// CreateRoom handles POST /api/rooms
// @Summary Create room
// @Tags rooms
// @Accept json
// @Produce json
// @Param request body service.CreateRoomInput true "Room"
// @Success 201 {object} models.Room
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /rooms [post]
func (s *Server) CreateRoom(c *fiber.Ctx) error {
	var req service.CreateRoomInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	room, err := s.roomService.CreateRoom(ctx, actor(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(room)
}

// GetUpdateRoomForm handles GET /api/rooms/:id/update
// @Summary Room update form
// @Tags rooms
// @Produce json
// @Param id path int true "Room ID"
// @Success 200 {object} service.RoomFormData
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /rooms/{id}/update [get]
func (s *Server) GetUpdateRoomForm(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	form, err := s.roomService.RoomForm(ctx, actor(c), &id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(form)
}

// UpdateRoom handles PUT /api/rooms/:id and POST /api/rooms/:id/update
// @Summary Update room
// @Tags rooms
// @Accept json
// @Produce json
// @Param id path int true "Room ID"
// @Param request body service.UpdateRoomInput true "Room"
// @Success 200 {object} models.Room
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /rooms/{id} [put]
func (s *Server) UpdateRoom(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateRoomInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.ID = id

	ctx, cancel := requestContext(c)
	defer cancel()

	room, err := s.roomService.UpdateRoom(ctx, actor(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(room)
}

// DeleteRoom handles GET/POST /api/rooms/:id/delete and DELETE /api/rooms/:id
// @Summary Delete room
// @Description GET returns the confirmation prompt; POST or DELETE confirms unless the body sets cancel
// @Tags rooms
// @Produce json
// @Param id path int true "Room ID"
// @Success 200 {object} service.RoomDeletion
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /rooms/{id} [delete]
func (s *Server) DeleteRoom(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	in, err := deleteInput(c, id)
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.roomService.DeleteRoom(ctx, actor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

// PostMessage handles POST /api/rooms/:id/messages
// @Summary Post message
// @Description Adds a message and makes the author a participant
// @Tags messages
// @Accept json
// @Produce json
// @Param id path int true "Room ID"
// @Param request body object{body=string} true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /rooms/{id}/messages [post]
func (s *Server) PostMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.PostMessageInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.RoomID = id

	ctx, cancel := requestContext(c)
	defer cancel()

	msg, err := s.messageService.PostMessage(ctx, actor(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// DeleteMessage handles GET/POST /api/messages/:id/delete and DELETE /api/messages/:id
// @Summary Delete message
// @Tags messages
// @Produce json
// @Param id path int true "Message ID"
// @Success 200 {object} service.MessageDeletion
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /messages/{id} [delete]
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	in, err := deleteInput(c, id)
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.messageService.DeleteMessage(ctx, actor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}
