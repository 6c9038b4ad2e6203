// Package metrics exposes Prometheus instrumentation for the CraftLink API.
//
// The HTTP middleware labels requests by method, registered route, and status
// code; the route label uses echo's matched path (e.g. /api/v1/conversations/:id)
// rather than the raw URL to keep cardinality bounded. Domain counters cover
// the realtime gateway and the notification dispatchers.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// Status is omitted from the latency histogram to keep cardinality lower.
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of open websocket connections.",
		},
	)

	gatewayEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_events_total",
			Help: "Realtime gateway events by type and outcome.",
		},
		[]string{"event", "outcome"},
	)

	messagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_sent_total",
			Help: "Total number of chat messages appended.",
		},
	)

	notificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Failed notification dispatches by channel.",
		},
		[]string{"channel"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequests,
		httpDuration,
		httpInflight,
		wsConnections,
		gatewayEvents,
		messagesSent,
		notificationFailures,
	)
}

// Outcomes for gateway event counters.
const (
	OutcomeOK      = "ok"
	OutcomeDropped = "dropped"
)

// HTTPMiddleware instruments requests with count, latency, and in-flight gauges.
func HTTPMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			httpInflight.Inc()
			defer httpInflight.Dec()

			err := next(c)

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			status := c.Response().Status
			if err != nil {
				// The error handler has not run yet; derive the status it will write.
				if httpErr, ok := err.(*echo.HTTPError); ok {
					status = httpErr.Code
				} else {
					status = 500
				}
			}

			httpRequests.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}

// WSConnectionOpened increments the live websocket connection gauge.
func WSConnectionOpened() { wsConnections.Inc() }

// WSConnectionClosed decrements the live websocket connection gauge.
func WSConnectionClosed() { wsConnections.Dec() }

// GatewayEvent records a processed or dropped gateway event.
func GatewayEvent(event, outcome string) {
	gatewayEvents.WithLabelValues(event, outcome).Inc()
}

// MessageSent records one appended chat message.
func MessageSent() { messagesSent.Inc() }

// NotificationFailed records a failed dispatch on the given channel.
func NotificationFailed(channel string) {
	notificationFailures.WithLabelValues(channel).Inc()
}
