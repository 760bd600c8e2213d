package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for attachment operations.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Result labels for compensating blob deletes.
const (
	CompensationSucceeded = "succeeded"
	CompensationFailed    = "failed"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskhub",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "taskhub",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	attachmentOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskhub",
		Name:      "attachment_operations_total",
		Help:      "Attachment operations by outcome and error kind.",
	}, []string{"operation", "outcome", "kind"})

	compensations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskhub",
		Name:      "attachment_compensations_total",
		Help:      "Compensating blob deletes after failed metadata writes.",
	}, []string{"operation", "result"})

	registerOnce sync.Once
)

// InitMetrics registers collectors with the default registry. Safe to call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpLatency, attachmentOps, compensations)
	})
}

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// ObserveAttachmentOp counts one finished attachment operation. kind is empty on success.
func ObserveAttachmentOp(operation, outcome, kind string) {
	attachmentOps.WithLabelValues(operation, outcome, kind).Inc()
}

// ObserveCompensation counts one compensating blob delete.
func ObserveCompensation(operation, result string) {
	compensations.WithLabelValues(operation, result).Inc()
}
