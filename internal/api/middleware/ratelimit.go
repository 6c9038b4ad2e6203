package middleware

import (
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	seclog "github.com/craftlinkhq/craftlink-backend/internal/logger"
)

// unthrottledPaths are probe and scrape endpoints exempt from rate limiting.
// Load balancer health checks arrive from a single IP and must not consume
// its budget.
var unthrottledPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// IPRateLimiter manages rate limiters per client IP
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rate     rate.Limit
	burst    int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     r,
		burst:    b,
	}
}

// GetLimiter returns the rate limiter for the given IP, creating one on
// first sight and refreshing its last-seen time.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	cl, exists := i.limiters[ip]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.limiters[ip] = cl
	}
	cl.lastSeen = time.Now()

	return cl.limiter
}

// CleanupOldEntries drops limiters for IPs not seen within maxIdle so the
// map does not grow without bound. Active clients keep their token state.
func (i *IPRateLimiter) CleanupOldEntries(maxIdle time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	for ip, cl := range i.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(i.limiters, ip)
		}
	}
}

// RateLimiter returns rate limiting middleware configured from the
// RATE_LIMIT_REQUESTS and RATE_LIMIT_BURST environment variables.
func RateLimiter(logger *slog.Logger) echo.MiddlewareFunc {
	requestsPerSecond := 10.0 // default
	burst := 20               // default

	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			requestsPerSecond = v
		}
	}

	if b := os.Getenv("RATE_LIMIT_BURST"); b != "" {
		if v, err := strconv.Atoi(b); err == nil {
			burst = v
		}
	}

	return RateLimiterWithConfig(requestsPerSecond, burst, logger)
}

// RateLimiterWithConfig returns rate limiting middleware with explicit limits
func RateLimiterWithConfig(requestsPerSecond float64, burst int, logger *slog.Logger) echo.MiddlewareFunc {
	limiter := NewIPRateLimiter(rate.Limit(requestsPerSecond), burst)

	// Evict idle client entries periodically
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			limiter.CleanupOldEntries(30 * time.Minute)
		}
	}()

	var sec *seclog.SecurityLogger
	if logger != nil {
		sec = seclog.NewSecurityLoggerWithHandler(logger.Handler())
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if unthrottledPaths[path] {
				return next(c)
			}

			ip := c.RealIP()
			if !limiter.GetLimiter(ip).Allow() {
				if sec != nil {
					sec.RateLimitExceeded(ip, path)
				}

				c.Response().Header().Set("Retry-After", "60")
				return echo.NewHTTPError(429, map[string]string{
					"error":       "rate limit exceeded",
					"code":        "RATE_LIMITED",
					"retry_after": "60",
				})
			}

			return next(c)
		}
	}
}
