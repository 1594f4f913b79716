package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveParse("mcq", 3, 5*time.Millisecond)
	m.ObserveParse("mcq", 2, time.Millisecond)
	m.ObserveImport("mcq", "imported", 4)
	m.ObserveImport("mcq", "invalid", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ParseTotal.WithLabelValues("mcq")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.ParsedRecords.WithLabelValues("mcq")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ImportRecords.WithLabelValues("mcq", "imported")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ImportRecords))
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	m := New(prometheus.NewRegistry())

	h := m.Middleware(func(r *http.Request) string { return "/x" })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/x", "418")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "qbank_http_requests_total")
}
