package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Redis (OTP challenges and send throttling)
	RedisURL string

	// Server port
	APIPort int

	// Auth
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// OTP
	OTPTTL        time.Duration
	OTPMaxPerHour int
	OTPDevMode    bool

	// Storage
	UploadStoragePath string
	PublicBaseURL     string

	// Notification providers
	SMSAPIURL      string
	SMSAPIKey      string
	SMSSenderID    string
	WhatsAppAPIURL string
	WhatsAppAPIKey string

	// Image generation provider
	DesignAPIURL string
	DesignAPIKey string

	// Outbound e-mail (notification channel)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Logging
	LogLevel string

	// Security
	AllowedOrigins string
	AppEnv         string

	// Rate Limiting
	RateLimitRequests float64
	RateLimitBurst    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	// Required: JWT_SECRET
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	// REDIS_URL (default: local instance)
	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		cfg.RedisURL = "redis://localhost:6379/0"
	}

	// API_PORT (default: 8080)
	apiPort := os.Getenv("API_PORT")
	if apiPort == "" {
		cfg.APIPort = 8080
	} else {
		port, err := strconv.Atoi(apiPort)
		if err != nil {
			return nil, fmt.Errorf("API_PORT must be a valid integer: %w", err)
		}
		cfg.APIPort = port
	}

	// Token lifetimes (defaults: 24h access, 168h refresh)
	var err error
	if cfg.AccessTokenTTL, err = durationEnv("ACCESS_TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = durationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}

	// OTP_TTL (default: 5m)
	if cfg.OTPTTL, err = durationEnv("OTP_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	// OTP_MAX_PER_HOUR (default: 5)
	if maxPerHour := os.Getenv("OTP_MAX_PER_HOUR"); maxPerHour != "" {
		v, err := strconv.Atoi(maxPerHour)
		if err != nil {
			return nil, fmt.Errorf("OTP_MAX_PER_HOUR must be a valid integer: %w", err)
		}
		cfg.OTPMaxPerHour = v
	} else {
		cfg.OTPMaxPerHour = 5
	}

	// OTP_DEV_MODE (default: false) returns codes in responses instead of sending SMS
	if devMode := os.Getenv("OTP_DEV_MODE"); devMode != "" {
		enabled, err := strconv.ParseBool(devMode)
		if err != nil {
			return nil, fmt.Errorf("OTP_DEV_MODE must be a valid boolean: %w", err)
		}
		cfg.OTPDevMode = enabled
	}

	// UPLOAD_STORAGE_PATH (default: ./uploads)
	cfg.UploadStoragePath = os.Getenv("UPLOAD_STORAGE_PATH")
	if cfg.UploadStoragePath == "" {
		cfg.UploadStoragePath = "./uploads"
	}

	// PUBLIC_BASE_URL (default derived from API port)
	cfg.PublicBaseURL = os.Getenv("PUBLIC_BASE_URL")
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.APIPort)
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	// Notification providers
	cfg.SMSAPIURL = os.Getenv("SMS_API_URL")
	cfg.SMSAPIKey = os.Getenv("SMS_API_KEY")
	cfg.SMSSenderID = os.Getenv("SMS_SENDER_ID")
	if cfg.SMSSenderID == "" {
		cfg.SMSSenderID = "CraftLink"
	}
	cfg.WhatsAppAPIURL = os.Getenv("WHATSAPP_API_URL")
	cfg.WhatsAppAPIKey = os.Getenv("WHATSAPP_API_KEY")

	// Image generation provider
	cfg.DesignAPIURL = os.Getenv("DESIGN_API_URL")
	cfg.DesignAPIKey = os.Getenv("DESIGN_API_KEY")

	// Outbound e-mail
	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	if smtpPort == "" {
		cfg.SMTPPort = 587
	} else {
		port, err := strconv.Atoi(smtpPort)
		if err != nil {
			return nil, fmt.Errorf("SMTP_PORT must be a valid integer: %w", err)
		}
		cfg.SMTPPort = port
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	cfg.SMTPFrom = os.Getenv("SMTP_FROM")

	// LOG_LEVEL (default: info)
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	// Security configuration
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = os.Getenv("APP_ENV")
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	// Rate limiting configuration
	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimitRequests = v
		}
	} else {
		cfg.RateLimitRequests = 10.0
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimitBurst = v
		}
	} else {
		cfg.RateLimitBurst = 20
	}

	return cfg, nil
}

// durationEnv parses a duration environment variable with a fallback default
func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid duration (e.g. 5m, 24h): %w", key, err)
	}
	return d, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Production-specific validation
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("SMTPPort must be between 1 and 65535")
	}
	if c.UploadStoragePath == "" {
		return fmt.Errorf("UploadStoragePath cannot be empty")
	}
	if c.OTPTTL <= 0 {
		return fmt.Errorf("OTPTTL must be positive")
	}
	if c.OTPMaxPerHour <= 0 {
		return fmt.Errorf("OTPMaxPerHour must be positive")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	// Check for wildcard in production
	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	// Check for sslmode=disable in database URL
	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	// OTP codes must go through a real provider in production
	if c.OTPDevMode {
		return fmt.Errorf("OTP_DEV_MODE is not allowed in production")
	}
	if c.SMSAPIURL == "" {
		return fmt.Errorf("SMS_API_URL is required in production")
	}

	return nil
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.String("storage_path", c.UploadStoragePath),
		slog.String("public_base_url", c.PublicBaseURL),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Duration("access_token_ttl", c.AccessTokenTTL),
		slog.Duration("otp_ttl", c.OTPTTL),
		slog.Bool("otp_dev_mode", c.OTPDevMode),
		slog.Bool("sms_provider_set", c.SMSAPIURL != ""),
		slog.Bool("whatsapp_provider_set", c.WhatsAppAPIURL != ""),
		slog.Bool("design_provider_set", c.DesignAPIURL != ""),
		slog.Bool("smtp_set", c.SMTPHost != ""),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
	)
}
