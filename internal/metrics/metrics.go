// Package metrics registers the relay's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "burna_ws_connections",
		Help: "Current number of realtime subscribers",
	})
	SessionsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "burna_sessions_created_total",
		Help: "Total number of sessions created",
	})
	SessionsTerminatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "burna_sessions_terminated_total",
		Help: "Total number of sessions terminated by a participant",
	})
	JoinsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "burna_joins_total",
		Help: "Participant join attempts by outcome",
	}, []string{"outcome"})
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "burna_messages_total",
		Help: "Total number of stored messages by kind",
	}, []string{"kind"})
	ReapedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "burna_reaped_rows_total",
		Help: "Rows deleted by the reaper",
	}, []string{"table"})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		WsConnections,
		SessionsCreatedTotal,
		SessionsTerminatedTotal,
		JoinsTotal,
		MessagesTotal,
		ReapedTotal,
		HttpRequestsTotal,
		HttpRequestDuration,
	)
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
