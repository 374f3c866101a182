package router

import (
	"time"

	"appnexus-chat/backend/internal/api"
	"appnexus-chat/backend/internal/ws"
	"appnexus-chat/backend/pkg/config"
	"appnexus-chat/backend/pkg/di"
	"appnexus-chat/backend/pkg/errors"
	"appnexus-chat/backend/pkg/health"
	"appnexus-chat/backend/pkg/logger"
	"appnexus-chat/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Hub       *ws.Hub
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	cfg := config.Get()
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(middleware.RequestID())
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	rateLimiter := middleware.NewRateLimiter(container.Logger)
	engine.Use(rateLimiter.Middleware())

	// The hub is the process-wide fan-out engine: one event loop owning
	// presence for the lifetime of the server.
	hub := ws.NewHub(container.MessageService, container.UserService, container.Logger)
	go hub.Run()

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Hub:       hub,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware())

	jwtAuth := middleware.JWTAuth(r.Container.JWTService, r.Logger)

	authHandler := api.NewAuthHandler(r.Container.UserService, r.Logger)
	userController := api.NewUserController(r.Container.UserService, r.Logger)
	messageController := api.NewMessageController(
		r.Container.MessageService,
		r.Hub,
		r.Container.UserService,
		r.Logger,
	)

	// API version 1 routes
	v1 := r.Engine.Group("/api/v1")
	{
		v1.GET("/health", r.healthCheckHandler())

		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/signup", authHandler.Signup)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/sync", authHandler.Sync)
			authRoutes.GET("/me", jwtAuth, authHandler.Me)
		}

		userController.RegisterRoutesV1(v1)
		messageController.RegisterRoutesV1(v1)
	}

	// Legacy API routes for clients that predate versioning
	legacyAuth := r.Engine.Group("/api/auth")
	{
		legacyAuth.POST("/signup", authHandler.Signup)
		legacyAuth.POST("/login", authHandler.Login)
		legacyAuth.POST("/sync", authHandler.Sync)
	}
	userController.RegisterRoutes(r.Engine)
	messageController.RegisterRoutes(r.Engine)

	// WebSocket route
	r.Engine.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(r.Hub, c)
	})

	// Prometheus metrics
	r.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Root health check kept for load balancers
	r.Engine.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Chat backend is running",
		})
	})
}

// healthCheckHandler reports overall and per-component health
func (r *Router) healthCheckHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, components := r.Container.Health.Report()

		code := 200
		if status != health.StatusUp {
			code = 503
		}
		c.JSON(code, gin.H{
			"status":     status,
			"uptime":     r.Container.Health.Uptime().String(),
			"components": components,
			"time":       time.Now().Format(time.RFC3339),
		})
	}
}

// corsMiddleware allows cross-origin requests, including the headers a
// websocket upgrade needs
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, Authorization, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
