package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/craftlinkhq/craftlink-backend/internal/api/response"
	"github.com/craftlinkhq/craftlink-backend/internal/auth"
	apperrors "github.com/craftlinkhq/craftlink-backend/internal/errors"
	seclog "github.com/craftlinkhq/craftlink-backend/internal/logger"
	"github.com/craftlinkhq/craftlink-backend/internal/models"
	"github.com/craftlinkhq/craftlink-backend/internal/services"
)

// AuthService is the slice of the OTP service the auth endpoints drive.
// *services.OTPService provides it in production.
type AuthService interface {
	RequestOTP(ctx context.Context, phone string) (string, error)
	VerifyOTP(ctx context.Context, phone, code, role, displayName string) (*services.VerifyResult, error)
	Refresh(ctx context.Context, refreshToken string) (*services.VerifyResult, error)
}

// AuthHandler handles phone-OTP sign-in and token refresh
type AuthHandler struct {
	auth AuthService
	sec  *seclog.SecurityLogger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		auth: auth,
		sec:  seclog.NewSecurityLoggerWithHandler(logger.Handler()),
	}
}

// RequestOTPRequest represents the request body for requesting a code
type RequestOTPRequest struct {
	Phone string `json:"phone"`
}

// VerifyOTPRequest represents the request body for verifying a code.
// Role and DisplayName are consumed only on first registration.
type VerifyOTPRequest struct {
	Phone       string `json:"phone"`
	Code        string `json:"code"`
	Role        string `json:"role,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// RefreshRequest represents the request body for refreshing a token pair
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SessionResponse is returned after a successful verify or refresh
type SessionResponse struct {
	User    *models.User    `json:"user"`
	Tokens  *auth.TokenPair `json:"tokens"`
	Created bool            `json:"created"`
}

// RequestOTP handles POST /api/v1/auth/otp/request
func (h *AuthHandler) RequestOTP(c echo.Context) error {
	var req RequestOTPRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.Phone == "" {
		return response.BadRequest(c, "phone is required")
	}

	devCode, err := h.auth.RequestOTP(c.Request().Context(), req.Phone)
	if err != nil {
		return response.ProviderErrorFromError(c, err)
	}

	// Dev mode hands the code back instead of delivering it
	if devCode != "" {
		return response.Success(c, map[string]string{"devCode": devCode})
	}
	return response.SuccessWithMessage(c, nil, "verification code sent")
}

// VerifyOTP handles POST /api/v1/auth/otp/verify
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.Phone == "" || req.Code == "" {
		return response.BadRequest(c, "phone and code are required")
	}

	result, err := h.auth.VerifyOTP(c.Request().Context(), req.Phone, req.Code, req.Role, req.DisplayName)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidOTP) {
			h.sec.OTPFailure(c.RealIP(), req.Phone, "code mismatch or expired")
		}
		return response.Error(c, err)
	}

	return response.Success(c, SessionResponse{
		User:    result.User,
		Tokens:  result.Tokens,
		Created: result.Created,
	})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.RefreshToken == "" {
		return response.BadRequest(c, "refreshToken is required")
	}

	result, err := h.auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, SessionResponse{
		User:   result.User,
		Tokens: result.Tokens,
	})
}
