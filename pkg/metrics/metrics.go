package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Store operation metrics. Every RecordStore save/get/update increments
// one counter and observes one latency sample.
var (
	StoreOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speechvault_store_operations_total",
			Help: "Record store operations by collection, operation and outcome",
		},
		[]string{"collection", "op", "status"},
	)

	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "speechvault_store_operation_duration_seconds",
			Help:    "Record store operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"collection", "op"},
	)

	ActivityLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speechvault_activity_log_entries_total",
			Help: "Activity log entries appended by action type",
		},
		[]string{"action"},
	)

	StreamingSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "speechvault_streaming_sessions_active",
			Help: "Streaming transcription sessions currently open",
		},
	)
)

// ObserveStoreOp records the outcome and latency of one store operation
func ObserveStoreOp(collection, op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOps.WithLabelValues(collection, op, status).Inc()
	StoreLatency.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
}

// Handler exposes the prometheus metrics endpoint for gin
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
