package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/craftlinkhq/craftlink-backend/internal/api"
	"github.com/craftlinkhq/craftlink-backend/internal/auth"
	"github.com/craftlinkhq/craftlink-backend/internal/cache"
	"github.com/craftlinkhq/craftlink-backend/internal/config"
	"github.com/craftlinkhq/craftlink-backend/internal/database"
	"github.com/craftlinkhq/craftlink-backend/internal/notify"
	"github.com/craftlinkhq/craftlink-backend/internal/presence"
	"github.com/craftlinkhq/craftlink-backend/internal/repository"
	"github.com/craftlinkhq/craftlink-backend/internal/services"
	"github.com/craftlinkhq/craftlink-backend/internal/storage"
	"github.com/craftlinkhq/craftlink-backend/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; deployments configure through the environment
	_ = godotenv.Load()

	cfg, err := config.LoadWithValidation()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting craftlink backend")
	cfg.LogConfig(logger)

	// Database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Redis backs OTP challenges and throttling; sign-in is down without it
	redisCache, err := cache.NewRedisCache(cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisCache.Close()

	// Upload storage
	fileStorage, err := storage.NewLocalStorage(cfg.UploadStoragePath)
	if err != nil {
		logger.Error("failed to initialize file storage", slog.Any("error", err))
		os.Exit(1)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Notification channels; unconfigured providers stay nil and the
	// dispatcher skips them
	var sms notify.SMSSender
	if cfg.SMSAPIURL != "" {
		sms = notify.NewSMSClient(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSSenderID)
	}
	var whatsapp notify.WhatsAppSender
	if cfg.WhatsAppAPIURL != "" {
		whatsapp = notify.NewWhatsAppClient(cfg.WhatsAppAPIURL, cfg.WhatsAppAPIKey)
	}
	var email notify.EmailSender
	if cfg.SMTPHost != "" {
		email = notify.NewEmailClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	}
	dispatcher := notify.NewDispatcher(sms, whatsapp, email, logger)

	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	designRepo := repository.NewDesignRepository(db)

	chatService := services.NewChatService(conversationRepo, messageRepo, userRepo, logger)
	otpService := services.NewOTPService(redisCache, userRepo, tokens, sms,
		cfg.OTPTTL, cfg.OTPMaxPerHour, cfg.OTPDevMode, logger)
	designService := services.NewDesignService(designRepo, userRepo, fileStorage,
		cfg.DesignAPIURL, cfg.DesignAPIKey, cfg.PublicBaseURL, logger)

	// Realtime gateway
	hub := websocket.NewHub(logger)
	go hub.Run()

	upgrader := websocket.DefaultUpgrader()
	if cfg.AppEnv == "production" {
		upgrader = websocket.NewSecureUpgrader(logger)
	}
	gateway := websocket.NewGateway(hub, presence.NewTracker(), chatService, dispatcher, tokens, upgrader, logger)

	e := api.NewRouter(&api.RouterConfig{
		DB:          db,
		Cache:       redisCache,
		FileStorage: fileStorage,
		Tokens:      tokens,
		Logger:      logger,

		Auth:     otpService,
		Chat:     chatService,
		Designs:  designService,
		Notifier: dispatcher,
		Gateway:  gateway,

		UploadDir:     cfg.UploadStoragePath,
		PublicBaseURL: cfg.PublicBaseURL,

		AllowedOrigins: splitOrigins(cfg.AllowedOrigins),
		RateLimit:      cfg.RateLimitRequests,
		RateBurst:      cfg.RateLimitBurst,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		logger.Info("http server listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", slog.Any("error", err))
	}

	logger.Info("server stopped")
}

// newLogger builds the process-wide JSON logger at the configured level
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// splitOrigins turns the comma-separated ALLOWED_ORIGINS value into a list
func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
