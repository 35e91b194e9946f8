// Package server contains the HTTP and WebSocket handlers of the blog API.
package server

import (
	"context"
	"fmt"
	"time"

	"inkwell/internal/backend"
	"inkwell/internal/bootstrap"
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/contentcache"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/service"
	"inkwell/internal/storage"
	"inkwell/internal/workflow"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.ObjectStore
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	auth      *service.AuthService
	client    *backend.Client
	bus       notifications.Bus
	hub       *notifications.Hub
	content   *contentcache.Store
	comments  *workflow.CommentComposer
	reactions *workflow.ReactionToggle
	admin     *workflow.PostAdmin
}

// NewServer connects to the database, Redis and the object store named by
// cfg and applies the configured schema mode.
func NewServer(ctx context.Context, cfg *config.Config, opts bootstrap.Options) (*Server, error) {
	opts.ApplySchema = true
	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object store: %w", err)
	}
	return NewServerWithDeps(cfg, db, redisClient, store)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; events then stay in this process and sign-out
// cannot revoke tokens.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, store storage.ObjectStore) (*Server, error) {
	c := cache.New(redisClient)
	profileRepo := repository.NewProfileRepository(db, c)
	blogRepo := repository.NewBlogRepository(db)

	images := service.NewImageService(repository.NewImageRepository(db), blogRepo, store, cfg)
	blogs := service.NewBlogService(blogRepo, images)
	auth := service.NewAuthService(repository.NewUserRepository(db), profileRepo, c, cfg)
	bus := notifications.NewBus(redisClient)

	client := backend.New(backend.Services{
		Auth:      auth,
		Profiles:  service.NewProfileService(profileRepo, images),
		Blogs:     blogs,
		Images:    images,
		Comments:  service.NewCommentService(repository.NewCommentRepository(db), blogs),
		Reactions: service.NewReactionService(repository.NewReactionRepository(db), blogs),
	}, bus)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		store:          store,
		promMiddleware: middleware.InitMetrics("inkwell-api"),
		auth:           auth,
		client:         client,
		bus:            bus,
		hub:            notifications.NewHub(),
		content:        contentcache.New(client, cfg.FeedPageSize),
		comments:       workflow.NewCommentComposer(client),
		reactions:      workflow.NewReactionToggle(client),
		admin:          workflow.NewPostAdmin(client),
	}, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	if _, ok := s.store.(storage.Reader); ok {
		app.Get("/media/:bucket/*", s.ServeMedia)
	}

	api := app.Group("/api")
	optional := middleware.OptionalAuth(s.auth)
	required := middleware.AuthRequired(s.auth)

	auth := api.Group("/auth")
	auth.Post("/register", s.Register)
	auth.Post("/login", s.Login)
	auth.Post("/logout", required, s.Logout)
	auth.Get("/session", s.Session)

	api.Get("/feed", optional, s.GetFeed)
	api.Get("/manage", required, s.GetManage)

	// middleware is attached per route: a group prefix of /profile would
	// also match /profiles
	profile := api.Group("/profile")
	profile.Get("/", required, s.GetDashboard)
	profile.Put("/", required, s.UpdateProfile)
	profile.Post("/avatar", required, s.UploadAvatar)
	api.Get("/profiles/:id", optional, s.GetPublicProfile)

	editor := api.Group("/editor")
	editor.Get("/", required, s.GetEditor)
	editor.Post("/images", required, s.StageImages)
	editor.Post("/format", required, s.FormatContent)

	posts := api.Group("/posts")
	posts.Post("/", required, s.CreatePost)
	// specific /:id/:resource routes before the generic /:id routes
	posts.Get("/:id/comments", optional, s.GetComments)
	posts.Post("/:id/comments", required, s.CreateComment)
	posts.Get("/:id/comments/:commentId/replies", optional, s.GetReplies)
	posts.Put("/:id/comments/:commentId", required, s.UpdateComment)
	posts.Delete("/:id/comments/:commentId", required, s.DeleteComment)
	posts.Get("/:id/reactions", optional, s.GetReactions)
	posts.Post("/:id/reactions", required, s.ToggleReaction)
	posts.Patch("/:id/publish", required, s.SetPublished)
	posts.Get("/:id", optional, s.GetPost)
	posts.Put("/:id", required, s.UpdatePost)
	posts.Delete("/:id", required, s.DeletePost)

	api.Get("/ws/changes", optional, s.ChangeStreamUpgrade, s.ChangeStreamHandler())
}

// App builds the fiber app with middleware and routes. It is built once.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "Inkwell API",
		BodyLimit: (s.config.ImageMaxUploadSizeMB + 1) * 8 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			observability.RecordErrorInContext(c.UserContext(), err)
			observability.Ctx(c.UserContext()).Error().Err(err).Msg("unhandled request error")
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Content is the process-local listing cache.
func (s *Server) Content() *contentcache.Store {
	return s.content
}

// StartBackground starts the change-stream fan-out and the content cache
// reconciler. Both stop when Shutdown is called.
func (s *Server) StartBackground() {
	if s.shutdownFn != nil {
		return
	}
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())

	if err := s.hub.Run(s.shutdownCtx, s.bus); err != nil {
		observability.Logger.Error().Err(err).Str("hub", s.hub.Name()).Msg("failed to start change stream")
	}
	go func() {
		if err := s.content.Watch(s.shutdownCtx, s.bus); err != nil {
			observability.Logger.Error().Err(err).Msg("content cache watcher stopped")
		}
	}()
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	s.StartBackground()
	observability.Logger.Info().Str("port", s.config.Port).Msg("server starting")
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error().Err(err).Msg("error shutting down HTTP server")
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		observability.Logger.Error().Err(err).Str("hub", s.hub.Name()).Msg("error shutting down hub")
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			observability.Logger.Error().Err(cerr).Msg("error closing sql DB")
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			observability.Logger.Error().Err(rerr).Msg("error closing redis")
		}
	}

	observability.Logger.Info().Msg("server shutdown complete")
	return nil
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports the database and Redis. Redis is optional: without
// it the API runs single-process, so "unavailable" does not fail the probe.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}
