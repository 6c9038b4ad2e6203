package websocket

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/websocket"

	seclog "github.com/craftlinkhq/craftlink-backend/internal/logger"
)

// allowedOrigins reads ALLOWED_ORIGINS (comma-separated) and falls back to
// the web and Expo dev servers when unset. Same source the CORS middleware
// uses, so the chat socket and the REST surface agree on who may call.
func allowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:19006"}
	}
	return origins
}

// NewSecureUpgrader builds the production upgrader: browsers must present
// an allow-listed Origin before the chat socket upgrades. Same-origin and
// non-browser clients send no Origin header and pass.
func NewSecureUpgrader(logger *slog.Logger) websocket.Upgrader {
	origins := allowedOrigins()

	var sec *seclog.SecurityLogger
	if logger != nil {
		sec = seclog.NewSecurityLoggerWithHandler(logger.Handler())
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range origins {
				if allowed == origin {
					return true
				}
			}
			if sec != nil {
				sec.InvalidOrigin(r.RemoteAddr, origin)
			}
			return false
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// DefaultUpgrader allows any origin. Development only.
func DefaultUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin:     func(*http.Request) bool { return true },
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}
