package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceDomainCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordEnrollmentSubmitted()
	m.RecordMatriculation(ResultSuccess)
	m.RecordMatriculation(ResultRejected)
	m.RecordMatriculation(ResultSuccess)
	m.RecordEventSignup(ResultConflict)

	body := scrape(t, m)
	assert.Contains(t, body, "enrollments_submitted_total 1")
	assert.Contains(t, body, `matriculations_total{result="success"} 2`)
	assert.Contains(t, body, `matriculations_total{result="rejected"} 1`)
	assert.Contains(t, body, `event_signups_total{result="conflict"} 1`)
}

func scrape(t *testing.T, m *MetricsService) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/programas", 200, 20*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "/api/programas", 200, 40*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.RequestsTotal)
	assert.InDelta(t, 30, snap.AverageRequestDurationMs, 0.001)
	assert.Equal(t, 0.5, snap.CacheHitRatio)
	assert.Greater(t, snap.Goroutines, 0)
}

func TestMetricsServiceHandler(t *testing.T) {
	m := NewMetricsService()
	m.RecordEnrollmentSubmitted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "enrollments_submitted_total 1")

	var nilMetrics *MetricsService
	rec = httptest.NewRecorder()
	nilMetrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	nilMetrics.RecordMatriculation(ResultError)
}
