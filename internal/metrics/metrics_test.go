package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New(func() int64 { return 3 })

	m.RecordHTTPRequest("POST", "/api/test-commands", 200, 12*time.Millisecond)
	m.RecordOperation("batch", "ok")
	m.RecordOperation("batch", "ok")
	m.RecordCommand("GET", true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/api/test-commands", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("batch", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("GET", "true")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "redisgate_open_connections 3")
	assert.Contains(t, rec.Body.String(), `redisgate_operations_total{operation="batch",outcome="ok"} 2`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordHTTPRequest("GET", "/healthz", 200, time.Millisecond)
		m.RecordOperation("probe", "timeout")
		m.RecordCommand("PING", true)
	})
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(nil)
		New(nil)
	})
}
