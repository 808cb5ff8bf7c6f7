package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/scrapegoat/internal/errs"
)

func TestMetricsArePrivate(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordRun(nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.RunsTotal.WithLabelValues(StatusOK)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RunsTotal.WithLabelValues(StatusOK)))
}

func TestRecordCommandLabelsErrorKind(t *testing.T) {
	m := NewMetrics()
	m.RecordCommand("fetch", time.Millisecond, &errs.FetchError{URL: "x", Err: errors.New("boom")})
	m.RecordCommand("fetch", time.Millisecond, errors.New("plain"))
	m.RecordCommand("graze", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("fetch", "fetch_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("fetch", StatusError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("graze", StatusOK)))
}

func TestSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRun(nil)
	m.RecordRun(errors.New("x"))
	m.AddRecordsExtracted(3)
	m.AddRecordsExtracted(0)

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.Runs)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(3), s.Records)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsExtracted))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRun(nil)
		m.RecordCommand("churn", time.Second, nil)
		m.RecordFetch("http", time.Second, 10, nil)
		m.AddRecordsDelivered("csv", 2)
		m.SetBreakerState("a.example", 2)
		NewTimer(m, "deliver").Stop(nil)
	})
	assert.Equal(t, Snapshot{}, m.Snapshot())
	assert.Error(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.AddRecordsDelivered("json", 4)

	path := filepath.Join(t.TempDir(), "scrapegoat.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `scrapegoat_records_delivered_total{format="json"} 4`)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	r := gin.New()
	r.Use(Middleware(m))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "scrapegoat_http_requests_total")
}
