package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/craftlinkhq/craftlink-backend/internal/auth"
	apperrors "github.com/craftlinkhq/craftlink-backend/internal/errors"
	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"github.com/craftlinkhq/craftlink-backend/internal/notify"
	"github.com/craftlinkhq/craftlink-backend/internal/repository"
	"github.com/craftlinkhq/craftlink-backend/internal/validator"
)

// otpThrottleWindow is the sliding window for per-phone request limits.
const otpThrottleWindow = time.Hour

// OTPStore is the cache surface the verification flow needs.
// *cache.RedisCache provides it in production.
type OTPStore interface {
	StoreOTP(ctx context.Context, phone, code string, ttl time.Duration) error
	GetOTP(ctx context.Context, phone string) (string, error)
	DeleteOTP(ctx context.Context, phone string) error
	IncrementOTPRequests(ctx context.Context, phone string, window time.Duration) (int64, error)
}

// OTPService owns the phone verification flow: code issuance with
// per-phone throttling, constant-time verification, and token issuance.
// Codes live in Redis so verification works across restarts and instances.
type OTPService struct {
	cache      OTPStore
	users      repository.UserRepository
	tokens     *auth.TokenService
	sms        notify.SMSSender
	ttl        time.Duration
	maxPerHour int
	devMode    bool
	logger     *slog.Logger
}

// NewOTPService creates an OTPService. In dev mode codes are returned to
// the caller instead of being sent over SMS.
func NewOTPService(
	cache OTPStore,
	users repository.UserRepository,
	tokens *auth.TokenService,
	sms notify.SMSSender,
	ttl time.Duration,
	maxPerHour int,
	devMode bool,
	logger *slog.Logger,
) *OTPService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OTPService{
		cache:      cache,
		users:      users,
		tokens:     tokens,
		sms:        sms,
		ttl:        ttl,
		maxPerHour: maxPerHour,
		devMode:    devMode,
		logger:     logger,
	}
}

// VerifyResult is the outcome of a successful OTP verification.
type VerifyResult struct {
	User    *models.User
	Tokens  *auth.TokenPair
	Created bool
}

// RequestOTP issues a verification code for the phone number and delivers
// it over SMS. The returned code is non-empty only in dev mode. OTP
// delivery is the one synchronous provider call in the system: sign-in
// cannot proceed without it, so provider failures surface to the caller.
func (s *OTPService) RequestOTP(ctx context.Context, rawPhone string) (string, error) {
	phone, err := validator.NormalizePhone(rawPhone)
	if err != nil {
		return "", fmt.Errorf("%s: %w", err.Error(), apperrors.ErrInvalidInput)
	}

	count, err := s.cache.IncrementOTPRequests(ctx, phone, otpThrottleWindow)
	if err != nil {
		return "", fmt.Errorf("otp throttle check failed: %w", err)
	}
	if count > int64(s.maxPerHour) {
		s.logger.Warn("otp request throttled", slog.String("phone", phone))
		return "", apperrors.ErrRateLimited
	}

	code, err := generateOTPCode()
	if err != nil {
		return "", fmt.Errorf("failed to generate otp code: %w", err)
	}

	if err := s.cache.StoreOTP(ctx, phone, code, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store otp code: %w", err)
	}

	if s.devMode {
		s.logger.Info("otp issued in dev mode", slog.String("phone", phone))
		return code, nil
	}

	if s.sms == nil {
		return "", apperrors.NewProviderError("sms-gateway", 0, "no sms provider configured", nil)
	}

	body := fmt.Sprintf("Your CraftLink verification code is %s. It expires in %d minutes.",
		code, int(s.ttl.Minutes()))
	if err := s.sms.SendSMS(ctx, phone, body); err != nil {
		return "", apperrors.NewProviderError("sms-gateway", 0, "failed to deliver verification code", err)
	}

	s.logger.Info("otp sent", slog.String("phone", phone))
	return "", nil
}

// VerifyOTP checks the code for the phone in constant time, consumes it on
// success, gets or creates the account, and issues a token pair. Role and
// display name are required only when the phone has no account yet.
func (s *OTPService) VerifyOTP(ctx context.Context, rawPhone, code, role, displayName string) (*VerifyResult, error) {
	phone, err := validator.NormalizePhone(rawPhone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), apperrors.ErrInvalidInput)
	}
	if code == "" {
		return nil, apperrors.ErrInvalidOTP
	}

	stored, err := s.cache.GetOTP(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("otp lookup failed: %w", err)
	}
	if stored == "" {
		return nil, apperrors.ErrInvalidOTP
	}
	if len(stored) != len(code) || subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		s.logger.Warn("otp verification failed", slog.String("phone", phone))
		return nil, apperrors.ErrInvalidOTP
	}

	// Single use: consume before account work so a replay cannot race it.
	if err := s.cache.DeleteOTP(ctx, phone); err != nil {
		s.logger.Warn("failed to delete consumed otp",
			slog.String("phone", phone),
			slog.Any("error", err))
	}

	user, err := s.users.GetByPhone(ctx, phone)
	created := false
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
		// First registration for this phone.
		if !models.ValidRole(role) {
			return nil, fmt.Errorf("role must be buyer or manufacturer for first registration: %w", apperrors.ErrInvalidInput)
		}
		displayName = validator.SanitizeString(displayName, 255)
		if displayName == "" {
			return nil, fmt.Errorf("displayName is required for first registration: %w", apperrors.ErrInvalidInput)
		}
		user, created, err = s.users.GetOrCreateByPhone(ctx, phone, role, displayName)
		if err != nil {
			return nil, err
		}
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user verified",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.Bool("created", created))
	return &VerifyResult{User: user, Tokens: pair, Created: created}, nil
}

// Refresh validates a refresh token and reissues a fresh pair for the
// account, picking up any profile changes since the last issuance.
func (s *OTPService) Refresh(ctx context.Context, refreshToken string) (*VerifyResult, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{User: user, Tokens: pair}, nil
}

// generateOTPCode returns a uniformly random 6-digit code.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
