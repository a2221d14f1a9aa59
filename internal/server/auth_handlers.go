package server

import (
	"errors"
	"time"

	"studybud/internal/middleware"
	"studybud/internal/models"
	"studybud/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errAccountGone marks a well-formed token whose user has been deleted.
var errAccountGone = errors.New("account no longer exists")

// authenticate resolves the request's token to a user that still exists.
func (s *Server) authenticate(c *fiber.Ctx, token string) (uint, error) {
	ctx, cancel := requestContext(c)
	defer cancel()

	claims, err := s.sessions.Parse(ctx, token)
	if err != nil {
		return 0, err
	}
	if _, err := s.userService.GetUser(ctx, claims.UserID); err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return 0, errAccountGone
		}
		return 0, err
	}
	return claims.UserID, nil
}

// AuthRequired rejects requests without a valid session token for an existing account.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := s.authenticate(c, middleware.TokenFromRequest(c))
		if err != nil {
			msg := "Invalid or expired token"
			switch {
			case errors.Is(err, middleware.ErrMissingToken):
				msg = "Authentication required"
			case errors.Is(err, middleware.ErrRevokedToken):
				msg = "Token has been revoked"
			case errors.Is(err, errAccountGone):
				msg = "Account no longer exists"
			case models.HasCode(err, models.CodeInternal):
				return respondError(c, err)
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}
		s.setUser(c, userID)
		return c.Next()
	}
}

// OptionalAuth identifies the user when a valid token is present and
// otherwise lets the request through anonymously.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := middleware.TokenFromRequest(c)
		if token == "" {
			return c.Next()
		}
		if userID, err := s.authenticate(c, token); err == nil {
			s.setUser(c, userID)
		}
		return c.Next()
	}
}

func (s *Server) setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
}

type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration"
// @Success 201 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.Register(ctx, req)
	if err != nil {
		return respondError(c, err)
	}
	return s.startSession(c, fiber.StatusCreated, user)
}

// Login handles POST /api/auth/login
// @Summary Log in
// @Description Authenticate with username and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentials
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return s.startSession(c, fiber.StatusOK, user)
}

// Logout handles POST /api/auth/logout
// @Summary Log out
// @Description Revoke the current token and clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if claims, err := s.sessions.Parse(ctx, middleware.TokenFromRequest(c)); err == nil {
		if err := s.sessions.Revoke(ctx, claims); err != nil {
			middleware.Logger.WarnContext(ctx, "token revocation failed", "error", err)
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (s *Server) startSession(c *fiber.Ctx, status int, user *models.User) error {
	token, claims, err := s.sessions.Issue(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  claims.ExpiresAt,
		HTTPOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Status(status).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}
