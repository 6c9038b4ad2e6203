package middleware

import (
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// defaultDevOrigins covers the web frontend and the Expo dev server the
// mobile app runs on during development.
var defaultDevOrigins = []string{"http://localhost:3000", "http://localhost:19006"}

// SecureCORS returns CORS middleware with secure configuration.
// Reads allowed origins from ALLOWED_ORIGINS environment variable.
// Does NOT allow wildcard (*) origin in production.
func SecureCORS() echo.MiddlewareFunc {
	origins := defaultDevOrigins
	if allowed := os.Getenv("ALLOWED_ORIGINS"); allowed != "" {
		origins = strings.Split(allowed, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	// Refuse wildcard origins in production. Credentials are allowed, so a
	// wildcard origin must never reach the CORS config.
	if os.Getenv("APP_ENV") == "production" {
		filtered := make([]string, 0, len(origins))
		for _, origin := range origins {
			if origin != "*" {
				filtered = append(filtered, origin)
			}
		}
		origins = filtered
		if len(origins) == 0 {
			origins = defaultDevOrigins
		}
	}

	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.PATCH, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
