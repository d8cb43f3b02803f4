package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Handler(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.RegistrationsTotal.Inc()
	metrics.LoginFailureTotal.Inc()
	metrics.LoginFailureTotal.Inc()
	metrics.ObserveRequest(http.MethodPost, "/auth/login", http.StatusUnauthorized, 25*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "hopverk_registrations_total 1")
	assert.Contains(t, body, "hopverk_login_failure_total 2")
	assert.Contains(t, body, `hopverk_http_requests_total{method="POST",path="/auth/login",status="401"} 1`)
}

func TestNewMetrics_NilRegistry(t *testing.T) {
	metrics := NewMetrics(nil)
	assert.NotNil(t, metrics)
	assert.NotNil(t, metrics.Handler())
}
