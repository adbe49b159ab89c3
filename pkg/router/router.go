package router

import (
	"context"
	"time"

	"speechvault/backend/internal/api"
	"speechvault/backend/internal/ws"
	"speechvault/backend/pkg/config"
	"speechvault/backend/pkg/di"
	"speechvault/backend/pkg/errors"
	"speechvault/backend/pkg/health"
	"speechvault/backend/pkg/logger"
	"speechvault/backend/pkg/metrics"
	"speechvault/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Health    *health.Checker
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	// Use the container's logger
	logger.SetGlobal(container.Logger)

	cfg := config.Get()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Logger middleware first so every request gets captured
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	rateLimiter := middleware.NewRateLimiter(container.Logger)
	engine.Use(rateLimiter.Middleware())

	checker := health.NewChecker(container.Logger, 30*time.Second)
	registerHealthChecks(checker, container)

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Health:    checker,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware())

	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService, r.Logger)

	authHandler := api.NewAuthHandler(r.Container.UserService, r.Logger)
	audioController := api.NewAudioController(r.Container.RecordStore, r.Logger)
	recordsController := api.NewRecordsController(r.Container.RecordStore, r.Logger)
	activityController := api.NewActivityController(r.Container.RecordStore, r.Container.ResponseCache, r.Logger)

	// API version 1 routes
	v1 := r.Engine.Group("/api/v1")

	// Public routes (no auth required)
	publicRoutes := v1.Group("/")
	{
		publicRoutes.GET("/health", r.Health.Handler())
		authHandler.RegisterRoutes(publicRoutes, jwtAuth)
	}

	// Protected routes (require authentication)
	protectedRoutes := v1.Group("/")
	protectedRoutes.Use(jwtAuth)
	{
		audioController.RegisterRoutes(protectedRoutes)
		recordsController.RegisterRoutes(protectedRoutes)
		activityController.RegisterRoutes(protectedRoutes)
	}

	// Legacy unversioned routes kept for the existing web client
	legacy := r.Engine.Group("/api")
	legacy.Use(jwtAuth)
	{
		audioController.RegisterRoutes(legacy)
		recordsController.RegisterRoutes(legacy)
		activityController.RegisterRoutes(legacy)
	}

	// Prometheus scrape endpoint
	r.Engine.GET("/metrics", metrics.Handler())

	// Live transcription over WebSocket
	if r.Config.Features.EnableStreaming {
		streamHandler := ws.NewStreamHandler(r.Container.RecordStore, r.Container.Redis, r.Logger)
		r.Engine.GET("/ws/stream", jwtAuth, streamHandler.Serve)
	}
}

func registerHealthChecks(checker *health.Checker, container *di.Container) {
	checker.Register("database", func() (health.Status, string, error) {
		sqlDB, err := container.DB.DB()
		if err != nil {
			return health.StatusDown, "connection pool unavailable", err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			return health.StatusDown, "ping failed", err
		}
		return health.StatusUp, "connected", nil
	})

	checker.Register("redis", func() (health.Status, string, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := container.Redis.Ping(ctx); err != nil {
			// Presence tracking degrades but record storage still works
			return health.StatusDegraded, "presence tracking unavailable", err
		}
		return health.StatusUp, "connected", nil
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
