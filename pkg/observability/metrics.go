package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	RegistrationsTotal  prometheus.Counter
	LoginSuccessTotal   prometheus.Counter
	LoginFailureTotal   prometheus.Counter
	LockoutsTotal       prometheus.Counter
	RateLimitRejections prometheus.Counter

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hopverk_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hopverk_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RegistrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hopverk_registrations_total",
			Help: "Total number of successful account registrations",
		}),
		LoginSuccessTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hopverk_login_success_total",
			Help: "Total number of successful logins",
		}),
		LoginFailureTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hopverk_login_failure_total",
			Help: "Total number of failed login attempts",
		}),
		LockoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hopverk_lockouts_triggered_total",
			Help: "Total number of account lockouts triggered",
		}),
		RateLimitRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hopverk_ratelimit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		}),
		DBConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hopverk_db_connections_active",
			Help: "Number of active database connections",
		}),
		DBConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hopverk_db_connections_idle",
			Help: "Number of idle database connections",
		}),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.RegistrationsTotal,
		m.LoginSuccessTotal,
		m.LoginFailureTotal,
		m.LockoutsTotal,
		m.RateLimitRejections,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records metrics for a completed HTTP request
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
