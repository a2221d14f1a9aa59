// Package server contains HTTP and WebSocket handlers for the StudyBud API.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "studybud/docs" // swagger docs
	"studybud/internal/cache"
	"studybud/internal/config"
	"studybud/internal/database"
	"studybud/internal/featureflags"
	"studybud/internal/middleware"
	"studybud/internal/models"
	"studybud/internal/notifications"
	"studybud/internal/repository"
	"studybud/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultOrigins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	sessions *middleware.SessionTokens
	features *featureflags.Manager
	notifier *notifications.Notifier
	roomHub  *notifications.RoomHub

	roomRepo repository.RoomRepository

	roomService    *service.RoomService
	messageService *service.MessageService
	topicService   *service.TopicService
	userService    *service.UserService
	viewService    *service.ViewService
}

// NewServer connects to the database and Redis described by cfg and builds a Server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return NewServerWithDeps(cfg, db, cache.Connect(cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil: caching, rate limits and token revocation are then
// disabled and room events are delivered in-process only.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires a config and a database")
	}

	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	topicRepo := repository.NewTopicRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("studybud-api"),
		shutdownCtx:    ctx,
		shutdownFn:     cancel,
		sessions: middleware.NewSessionTokens(cfg.JWTSecret,
			time.Duration(cfg.SessionTTLHours)*time.Hour, redisClient),
		features: featureflags.NewManager(cfg.FeatureFlags),
		notifier: notifications.NewNotifier(redisClient),
		roomHub:  notifications.NewRoomHub(),
		roomRepo: roomRepo,
	}

	events := notifications.NewRoomEvents(s.roomHub, s.notifier)
	s.topicService = service.NewTopicService(topicRepo, cache.NewStore(redisClient))
	s.roomService = service.NewRoomService(roomRepo, messageRepo, s.topicService, events)
	s.messageService = service.NewMessageService(messageRepo, roomRepo, events)
	s.userService = service.NewUserService(userRepo)
	s.viewService = service.NewViewService(roomRepo, messageRepo, userRepo, s.topicService, cfg.HomeTopicLimit)

	return s, nil
}

// NewApp returns a Fiber app whose error handler renders the API error shape.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName: "StudyBud API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "StudyBud Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", s.Logout)

	rooms := api.Group("/rooms")
	rooms.Get("/", s.OptionalAuth(), s.GetHome)
	rooms.Post("/", s.AuthRequired(), s.CreateRoom)
	// Literal segments before /:id
	rooms.Get("/create", s.AuthRequired(), s.GetCreateRoomForm)
	rooms.Get("/:id/update", s.AuthRequired(), s.GetUpdateRoomForm)
	rooms.Post("/:id/update", s.AuthRequired(), s.UpdateRoom)
	rooms.Get("/:id/delete", s.AuthRequired(), s.DeleteRoom)
	rooms.Post("/:id/delete", s.AuthRequired(), s.DeleteRoom)
	postLimit := middleware.RateLimit(s.redis, 30, time.Minute, "post_message")
	rooms.Post("/:id/messages", s.AuthRequired(), postLimit, s.PostMessage)
	rooms.Get("/:id", s.OptionalAuth(), s.GetRoom)
	rooms.Post("/:id", s.AuthRequired(), postLimit, s.PostMessage)
	rooms.Put("/:id", s.AuthRequired(), s.UpdateRoom)
	rooms.Delete("/:id", s.AuthRequired(), s.DeleteRoom)

	messages := api.Group("/messages", s.AuthRequired())
	messages.Get("/:id/delete", s.DeleteMessage)
	messages.Post("/:id/delete", s.DeleteMessage)
	messages.Delete("/:id", s.DeleteMessage)

	api.Get("/users/:id", s.GetUserProfile)

	profile := api.Group("/profile", s.AuthRequired())
	profile.Get("/", s.GetMyProfile)
	profile.Post("/", s.UpdateMyProfile)
	profile.Put("/", s.UpdateMyProfile)
	profile.Delete("/", s.DeleteMyAccount)

	api.Get("/topics", s.GetTopics)
	api.Get("/activity", s.GetActivity)
	api.Get("/features", s.OptionalAuth(), s.GetFeatureFlags)

	ws := api.Group("/ws", s.OptionalAuth())
	ws.Get("/rooms/:id", s.RoomFeedUpgrade, s.RoomFeedHandler())
}

// App returns the Fiber app built by Start, or nil before Start.
func (s *Server) App() *fiber.App {
	return s.app
}

// StartRealtime wires the room hub to Redis pub/sub. Without Redis it is a no-op
// and events are delivered directly to the local hub.
func (s *Server) StartRealtime() error {
	return s.roomHub.StartWiring(s.shutdownCtx, s.notifier)
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	app := NewApp()
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	if err := s.StartRealtime(); err != nil {
		middleware.Logger.Error("failed to start room event wiring", "error", err)
	}

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.roomHub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down room hub", "error", err)
	}

	if err := database.Close(s.db); err != nil {
		middleware.Logger.Error("error closing database", "error", err)
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", "error", err)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

// LivenessCheck handles liveness probe requests
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string}
// @Router /health/live [get]
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} object{status=string}
// @Failure 503 {object} object{status=string}
// @Router /health/ready [get]
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: the API degrades without it.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}
