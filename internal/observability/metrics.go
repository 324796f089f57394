package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lumina_http_requests_total",
			Help: "Total HTTP requests processed, labelled by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lumina_http_request_duration_seconds",
			Help:    "HTTP request latency distribution by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	enrollmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lumina_enrollments_total",
			Help: "Total successful course enrollments.",
		},
	)

	lessonsCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lumina_lessons_completed_total",
			Help: "Total lesson completion events recorded.",
		},
	)
)

// RegisterMetrics registers collectors with the default Prometheus registry.
// Safe to call multiple times.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			enrollmentsTotal,
			lessonsCompletedTotal,
		)
	})
}

// ObserveRequest records a completed HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// CountEnrollment increments the enrollment counter.
func CountEnrollment() {
	enrollmentsTotal.Inc()
}

// CountLessonCompleted increments the lesson completion counter.
func CountLessonCompleted() {
	lessonsCompletedTotal.Inc()
}
