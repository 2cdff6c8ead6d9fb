package service

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *MetricsService) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetricsServiceExposesDomainCounters(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/admin/finance", http.StatusOK, 12*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordDegradedRead(SourceExpenses)
	m.RecordEnrollmentTransition("active")
	m.RecordCheckout("mercadopago", false)
	m.ObserveDBQuery("finance_enrollments", 3*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `http_requests_total{method="GET",path="/api/v1/admin/finance",status="200"} 1`)
	assert.Contains(t, body, `cache_lookups_total{result="hit"} 1`)
	assert.Contains(t, body, `aggregate_degraded_reads_total{source="expenses"} 1`)
	assert.Contains(t, body, `enrollment_transitions_total{to="active"} 1`)
	assert.Contains(t, body, `checkout_sessions_total{outcome="error",provider="mercadopago"} 1`)
	assert.Contains(t, body, `db_query_duration_seconds_count{query="finance_enrollments"} 1`)
}

func TestMetricsServiceNilIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	m.RecordDegradedRead("students")
	m.RecordCheckout("midtrans", true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
