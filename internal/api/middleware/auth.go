// Package middleware provides HTTP middleware for the CraftLink API.
package middleware

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/craftlinkhq/craftlink-backend/internal/auth"
	seclog "github.com/craftlinkhq/craftlink-backend/internal/logger"
)

// Context keys set by JWTAuth for downstream handlers.
const (
	ContextUserID    = "user_id"
	ContextUserRole  = "user_role"
	ContextUserPhone = "user_phone"
)

// JWTAuth validates the access token from the Authorization header and
// stores the authenticated user's identity on the request context.
func JWTAuth(tokens *auth.TokenService, logger *slog.Logger) echo.MiddlewareFunc {
	var sec *seclog.SecurityLogger
	if logger != nil {
		sec = seclog.NewSecurityLoggerWithHandler(logger.Handler())
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				if sec != nil {
					sec.AuthFailure(c.RealIP(), c.Path(), "missing authorization header")
				}
				return echo.NewHTTPError(401, map[string]string{
					"error": "missing authorization header",
					"code":  "UNAUTHORIZED",
				})
			}

			// Extract token from "Bearer <token>" format
			token := strings.TrimPrefix(authHeader, "Bearer ")
			token = strings.TrimSpace(token)
			if token == "" || token == authHeader {
				if sec != nil {
					sec.AuthFailure(c.RealIP(), c.Path(), "malformed authorization header")
				}
				return echo.NewHTTPError(401, map[string]string{
					"error": "authorization header must be 'Bearer <token>'",
					"code":  "UNAUTHORIZED",
				})
			}

			claims, err := tokens.ValidateAccessToken(token)
			if err != nil {
				if sec != nil {
					sec.AuthFailure(c.RealIP(), c.Path(), "invalid access token")
				}
				return echo.NewHTTPError(401, map[string]string{
					"error": "invalid or expired token",
					"code":  "UNAUTHORIZED",
				})
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextUserRole, claims.Role)
			c.Set(ContextUserPhone, claims.Phone)

			return next(c)
		}
	}
}

// UserID returns the authenticated user's ID from the context,
// or 0 when the request is unauthenticated.
func UserID(c echo.Context) uint {
	id, ok := c.Get(ContextUserID).(uint)
	if !ok {
		return 0
	}
	return id
}

// UserRole returns the authenticated user's role from the context.
func UserRole(c echo.Context) string {
	role, ok := c.Get(ContextUserRole).(string)
	if !ok {
		return ""
	}
	return role
}

// UserPhone returns the authenticated user's phone from the context.
func UserPhone(c echo.Context) string {
	phone, ok := c.Get(ContextUserPhone).(string)
	if !ok {
		return ""
	}
	return phone
}
