package server

import (
	"context"
	"errors"
	"time"

	"studybud/internal/models"
	"studybud/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const requestTimeout = 5 * time.Second

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// requestContext bounds storage calls made on behalf of a request.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

// actor returns the authenticated user for the request, or the anonymous actor.
func actor(c *fiber.Ctx) service.Actor {
	if id, ok := c.Locals("userID").(uint); ok {
		return service.Actor{UserID: id}
	}
	return service.Actor{}
}

// respondError writes err with the status its AppError code maps to.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// parseBody decodes the request body into v, writing a 400 on failure.
// An empty body leaves v untouched.
func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(v); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// deleteInput maps a delete request onto the confirm/cancel interaction:
// GET asks for confirmation, POST and DELETE confirm unless the body sets cancel.
func deleteInput(c *fiber.Ctx, id uint) (service.DeleteInput, error) {
	in := service.DeleteInput{ID: id}
	if c.Method() == fiber.MethodGet {
		return in, nil
	}

	var req struct {
		Cancel bool `json:"cancel" form:"cancel"`
	}
	if err := parseBody(c, &req); err != nil {
		return in, err
	}
	in.Confirmed = true
	in.Cancelled = req.Cancel
	return in, nil
}
