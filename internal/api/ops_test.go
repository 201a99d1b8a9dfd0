package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataprobe/internal/metrics"
)

type fixedSessions int

func (f fixedSessions) Len() int { return int(f) }

func TestHealthz(t *testing.T) {
	s := NewOpsServer(metrics.NewPrometheusCollector(), fixedSessions(3), nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 3, body.Sessions)
}

func TestMetricsEndpoint(t *testing.T) {
	collector := metrics.NewPrometheusCollector()
	collector.IncrementCounter("uploads_total", "format", "csv", "result", "ok")
	s := NewOpsServer(collector, nil, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dataprobe_uploads_total{format="csv",result="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestProfilerMounted(t *testing.T) {
	s := NewOpsServer(nil, nil, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
