package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	adminOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_op_total",
			Help: "Tracks admin console operations by outcome.",
		},
		[]string{"op", "status"}, // status: 'ok', 'error', 'denied'
	)

	codesGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "activation_codes_generated_total",
			Help: "Total activation codes generated.",
		},
	)

	codesDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activation_codes_deleted_total",
			Help: "Total activation codes deleted, by path.",
		},
		[]string{"path"}, // 'single', 'expired', 'batch'
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of admin API requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)

	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_login_attempts_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"status"}, // 'ok', 'invalid', 'rate_limited'
	)
)

func init() {
	register(adminOpTotal, codesGenerated, codesDeleted, httpDuration, loginAttempts)
}

func IncAdminOp(op, status string) {
	adminOpTotal.WithLabelValues(norm(op), norm(status)).Inc()
}

func AddGenerated(n int) {
	codesGenerated.Add(float64(n))
}

func AddDeleted(path string, n int) {
	codesDeleted.WithLabelValues(norm(path)).Add(float64(n))
}

func ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	httpDuration.WithLabelValues(norm(method), route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

func IncLogin(status string) {
	loginAttempts.WithLabelValues(norm(status)).Inc()
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
