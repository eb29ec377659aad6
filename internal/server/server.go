// Package server contains the HTTP and WebSocket surface of the wall gateway.
// Handlers are thin: every data operation is delegated to the platform through
// the session accessor, the post repository, and the view-models.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wall/internal/config"
	"wall/internal/middleware"
	"wall/internal/models"
	"wall/internal/observability"
	"wall/internal/platform"
	"wall/internal/posts"
	"wall/internal/session"
	"wall/internal/view"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus

	auth    session.AuthAPI
	blobs   view.Uploader
	changes *platform.Changes

	session *session.Accessor
	posts   posts.Repository
	feed    *view.Feed
	hub     *FeedHub
}

// NewServer creates a server instance, dialing every platform surface.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := platform.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := platform.NewRedisClient(cfg.RedisURL)

	blobs, err := platform.NewBlobStore(cfg)
	if err != nil {
		return nil, err
	}

	auth := platform.NewAuthClient(cfg)

	return NewServerWithDeps(cfg, db, redisClient, auth, blobs), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Used by tests and bootstrap layers that establish platform clients first.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, auth session.AuthAPI, blobs view.Uploader) *Server {
	changes := platform.NewChanges(redisClient)
	postRepo := posts.NewRepository(db, changes)

	var source view.ChangeSource
	if redisClient != nil {
		source = view.PlatformChanges(changes)
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("wall-gateway"),
		auth:           auth,
		blobs:          blobs,
		changes:        changes,
		session:        session.New(db, auth),
		posts:          postRepo,
		feed:           view.NewFeed(postRepo, source),
		hub:            NewFeedHub(),
	}

	s.feed.OnUpdate(func(page []*models.Post) {
		middleware.FeedReloads.Inc()
		payload, err := json.Marshal(fiber.Map{
			"type":  "feed_updated",
			"posts": page,
		})
		if err != nil {
			observability.Logger.Error("failed to marshal feed update", "error", err)
			return
		}
		s.hub.Broadcast(payload)
	})

	middleware.InitMiddleware(cfg)
	return s
}

// Start runs the gateway's long-lived feed view: one change-notification
// subscription for the process, fanned out to connected sockets.
func (s *Server) Start(ctx context.Context) error {
	return s.feed.Start(ctx)
}

// Shutdown releases gateway resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.feed.Close(); err != nil {
		observability.Logger.Warn("feed close error", "error", err)
	}
	s.hub.CloseAll()

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			observability.Logger.Warn("redis close error", "error", err)
		}
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			return sqlDB.Close()
		}
	}
	return nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/logout", middleware.AuthRequired, s.Logout)
	auth.Get("/me", s.Me)

	api.Get("/posts", s.GetPosts)
	protected := api.Group("", middleware.AuthRequired)
	protected.Post("/posts", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	protected.Patch("/posts/:id", s.UpdatePost)
	protected.Delete("/posts/:id", s.DeletePost)

	api.Get("/profiles/:id", s.GetProfile)
	protected.Patch("/profiles/:id", s.UpdateProfile)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/feed", middleware.AuthRequired, s.FeedSocketHandler())
}
