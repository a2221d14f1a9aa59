package server

import (
	"studybud/internal/middleware"
	"studybud/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:id
// @Summary User profile
// @Description A user's hosted rooms and messages alongside every topic
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} service.ProfileView
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	view, err := s.viewService.Profile(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// GetMyProfile handles GET /api/profile
// @Summary Own profile
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Security BearerAuth
// @Router /profile [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.CurrentUser(ctx, actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/profile
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.UpdateProfileInput true "Profile"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profile [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.UpdateProfile(ctx, actor(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteMyAccount handles DELETE /api/profile
// @Summary Delete own account
// @Description Hosted rooms remain without a host; messages are removed
// @Tags users
// @Produce json
// @Success 200 {object} service.UserDeletion
// @Security BearerAuth
// @Router /profile [delete]
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	in, err := deleteInput(c, 0)
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.userService.DeleteUser(ctx, actor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	if res.Stage.Removed() {
		if claims, err := s.sessions.Parse(ctx, middleware.TokenFromRequest(c)); err == nil {
			if err := s.sessions.Revoke(ctx, claims); err != nil {
				middleware.Logger.WarnContext(ctx, "session revoke failed", "user_id", claims.UserID, "error", err)
			}
		}
	}
	return c.JSON(res)
}

// GetTopics handles GET /api/topics
// @Summary List topics
// @Tags topics
// @Produce json
// @Param q query string false "Filter text"
// @Success 200 {array} models.Topic
// @Router /topics [get]
func (s *Server) GetTopics(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	topics, err := s.topicService.ListTopics(ctx, c.Query("q"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(topics)
}

// GetActivity handles GET /api/activity
// @Summary Recent activity
// @Description Every message, newest first
// @Tags messages
// @Produce json
// @Success 200 {array} models.Message
// @Router /activity [get]
func (s *Server) GetActivity(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	messages, err := s.messageService.ListAll(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(messages)
}

// GetFeatureFlags handles GET /api/features
// @Summary Feature flags
// @Description Configured flags and their value for the current user
// @Tags meta
// @Produce json
// @Success 200 {object} object{raw=map[string]string,evaluated=map[string]bool}
// @Router /features [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	return c.JSON(fiber.Map{
		"raw":       s.features.Raw(),
		"evaluated": s.features.Snapshot(userID),
	})
}
