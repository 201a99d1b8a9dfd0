package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterAndGauge(t *testing.T) {
	c := NewPrometheusCollector()

	c.IncrementCounter("uploads_total", "format", "csv")
	c.IncrementCounter("uploads_total", "format", "csv")
	c.IncrementCounter("uploads_total", "format", "xlsx")
	c.RecordGauge("active_sessions", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.counters["uploads_total"].WithLabelValues("csv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.counters["uploads_total"].WithLabelValues("xlsx")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.gauges["active_sessions"].WithLabelValues()))
}

func TestHistogramExposedOverHTTP(t *testing.T) {
	c := NewPrometheusCollector()
	c.RecordHistogram("recompute_seconds", 0.02, "status", "filtered")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `dataprobe_recompute_seconds_count{status="filtered"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestCollectorsAreIndependent(t *testing.T) {
	a := NewPrometheusCollector()
	b := NewPrometheusCollector()
	a.IncrementCounter("uploads_total")
	b.IncrementCounter("uploads_total")

	n, err := testutil.GatherAndCount(a.Gatherer(), "dataprobe_uploads_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestParseLabelPairsDropsDanglingKey(t *testing.T) {
	names, values := parseLabelPairs([]string{"a", "1", "b"})
	assert.Equal(t, []string{"a"}, names)
	assert.Equal(t, []string{"1"}, values)
}

func TestTimer(t *testing.T) {
	timer := NopCollector{}.StartTimer("x")
	assert.GreaterOrEqual(t, timer.Stop(), 0.0)
}
