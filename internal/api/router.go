package api

import (
	"log/slog"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/craftlinkhq/craftlink-backend/internal/api/handlers"
	"github.com/craftlinkhq/craftlink-backend/internal/api/middleware"
	"github.com/craftlinkhq/craftlink-backend/internal/auth"
	"github.com/craftlinkhq/craftlink-backend/internal/cache"
	"github.com/craftlinkhq/craftlink-backend/internal/metrics"
	"github.com/craftlinkhq/craftlink-backend/internal/notify"
	"github.com/craftlinkhq/craftlink-backend/internal/repository"
	"github.com/craftlinkhq/craftlink-backend/internal/services"
	"github.com/craftlinkhq/craftlink-backend/internal/storage"
	"github.com/craftlinkhq/craftlink-backend/internal/websocket"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB          *gorm.DB
	Cache       *cache.RedisCache
	FileStorage storage.FileStorage
	Tokens      *auth.TokenService
	Logger      *slog.Logger

	// Services constructed in main; Notifier and Gateway may be nil when
	// their backing channels are not configured.
	Auth     *services.OTPService
	Chat     *services.ChatService
	Designs  *services.DesignService
	Notifier *notify.Dispatcher
	Gateway  *websocket.Gateway

	// UploadDir is served read-only under /files. PublicBaseURL is the
	// externally reachable origin used when building upload URLs.
	UploadDir     string
	PublicBaseURL string

	// Security configuration
	AllowedOrigins []string // Allowed CORS origins
	RateLimit      float64  // Requests per second (0 = use env default)
	RateBurst      int      // Burst size for rate limiter
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Security Middleware (applied in correct order)
	// 1. Recover from panics
	e.Use(middleware.Recover())

	// 2. Security headers (applied to all responses)
	e.Use(middleware.SecureHeaders())

	// 3. CORS - Set environment variable if origins provided in config
	if len(cfg.AllowedOrigins) > 0 {
		os.Setenv("ALLOWED_ORIGINS", strings.Join(cfg.AllowedOrigins, ","))
	}
	e.Use(middleware.SecureCORS())

	// 4. Rate limiting - use RateLimiterWithConfig if custom values provided
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(cfg.RateLimit, cfg.RateBurst, cfg.Logger))
	} else {
		e.Use(middleware.RateLimiter(cfg.Logger))
	}

	// 5. Request logging
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	// 6. Request metrics
	e.Use(metrics.HTTPMiddleware())

	// Initialize repositories
	userRepo := repository.NewUserRepository(cfg.DB)
	conversationRepo := repository.NewConversationRepository(cfg.DB)
	messageRepo := repository.NewMessageRepository(cfg.DB)
	requirementRepo := repository.NewRequirementRepository(cfg.DB)
	quoteRepo := repository.NewQuoteRepository(cfg.DB)

	// Nil concrete types must not leak into non-nil interfaces: handlers
	// check these against nil to decide whether the channel exists.
	var broadcaster handlers.Broadcaster
	if cfg.Gateway != nil {
		broadcaster = cfg.Gateway
	}
	var notifier handlers.QuoteNotifier
	if cfg.Notifier != nil {
		notifier = cfg.Notifier
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Cache)
	authHandler := handlers.NewAuthHandler(cfg.Auth, cfg.Logger)
	userHandler := handlers.NewUserHandler(userRepo)
	conversationHandler := handlers.NewConversationHandler(cfg.Chat, conversationRepo, broadcaster)
	messageHandler := handlers.NewMessageHandler(cfg.Chat, conversationRepo, messageRepo, broadcaster)
	requirementHandler := handlers.NewRequirementHandler(requirementRepo)
	quoteHandler := handlers.NewQuoteHandler(quoteRepo, requirementRepo, userRepo, notifier)
	designHandler := handlers.NewDesignHandler(cfg.Designs)
	uploadHandler := handlers.NewUploadHandler(cfg.FileStorage, cfg.PublicBaseURL, cfg.Logger)

	// Health and metrics routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Stored uploads, served under the same prefix upload URLs are built with
	if cfg.UploadDir != "" {
		e.Static("/files", cfg.UploadDir)
	}

	// Realtime chat socket; authenticates itself via the token query param
	if cfg.Gateway != nil {
		e.GET("/ws", cfg.Gateway.HandleConnection)
	}

	api := e.Group("/api/v1")

	// Auth routes (no token required)
	authGroup := api.Group("/auth")
	authGroup.POST("/otp/request", authHandler.RequestOTP)
	authGroup.POST("/otp/verify", authHandler.VerifyOTP)
	authGroup.POST("/refresh", authHandler.Refresh)

	// Everything below requires a valid access token
	protected := api.Group("", middleware.JWTAuth(cfg.Tokens, cfg.Logger))

	// Profile routes
	protected.GET("/me", userHandler.Me)
	protected.PATCH("/me", userHandler.UpdateMe)
	protected.GET("/users/:id", userHandler.Get)

	// Conversation routes
	conversations := protected.Group("/conversations")
	conversations.GET("", conversationHandler.List)
	conversations.POST("", conversationHandler.Create)
	conversations.PATCH("/:id", conversationHandler.Archive)
	conversations.POST("/:id/read", conversationHandler.MarkRead)

	// Message routes (nested under conversations)
	conversations.GET("/:id/messages", messageHandler.List)
	conversations.POST("/:id/messages", messageHandler.Send)

	// Requirement routes
	requirements := protected.Group("/requirements")
	requirements.POST("", requirementHandler.Create)
	requirements.GET("", requirementHandler.List)
	requirements.GET("/:id", requirementHandler.Get)
	requirements.PATCH("/:id", requirementHandler.Update)

	// Quote routes (nested under requirements, standalone for decisions)
	requirements.POST("/:id/quotes", quoteHandler.Create)
	requirements.GET("/:id/quotes", quoteHandler.ListByRequirement)
	protected.PATCH("/quotes/:id", quoteHandler.UpdateStatus)

	// AI design routes
	designs := protected.Group("/designs")
	designs.POST("", designHandler.Generate)
	designs.GET("", designHandler.List)
	designs.GET("/:id", designHandler.Get)

	// Upload route
	protected.POST("/uploads", uploadHandler.Upload)

	return e
}
