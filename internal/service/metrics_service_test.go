package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceCountsDomainRejections(t *testing.T) {
	m := NewMetricsService()
	m.RecordScheduleConflict("TEACHER")
	m.RecordScheduleConflict("TEACHER")
	m.RecordScheduleConflict("SECTION")
	m.RecordCapacityRejection()
	m.RecordRetryableFailure("enroll")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.scheduleConflicts.WithLabelValues("TEACHER")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scheduleConflicts.WithLabelValues("SECTION")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.capacityRejects))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retryableFailures.WithLabelValues("enroll")))
}

func TestMetricsServiceHandlerExposesSeries(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/sections/:id", http.StatusOK, 20*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "http_requests_total"))
	assert.True(t, strings.Contains(body, `cache_lookups_total{result="hit"} 1`))
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.RecordCapacityRejection()
	m.ObserveDBQuery("x", time.Second)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
