package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LeaveTransitions counts lifecycle transition attempts by action and result.
	LeaveTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_transitions_total",
		Help: "Leave lifecycle transitions by action and result",
	}, []string{"action", "result"})

	// LeaveEventsConsumed counts lifecycle events read back from Kafka.
	LeaveEventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_events_consumed_total",
		Help: "Leave lifecycle events consumed by event type",
	}, []string{"event_type"})

	OutboxRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_outbox_relayed_total",
		Help: "Outbox rows relayed to Kafka by event type and result",
	}, []string{"event_type", "result"})

	// LeaveCatalogCache counts catalog cache lookups by outcome.
	LeaveCatalogCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leave_catalog_cache_total",
		Help: "Leave catalog cache lookups by outcome",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Transition results.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// GinMiddleware records request latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
