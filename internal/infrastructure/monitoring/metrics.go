package monitoring

import (
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/scrapegoat/internal/errs"
)

const namespace = "scrapegoat"

// Status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds all Prometheus metrics of one process. Every instance owns
// its registry, so tests and embedded interpreters never collide.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP API metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Interpreter metrics
	RunsTotal        *prometheus.CounterVec
	CommandsTotal    *prometheus.CounterVec
	CommandDuration  *prometheus.HistogramVec
	RecordsExtracted prometheus.Counter
	RecordsDelivered *prometheus.CounterVec

	// Fetch metrics
	FetchesTotal  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FetchBytes    prometheus.Histogram
	CacheHits     prometheus.Counter
	BreakerState  *prometheus.GaugeVec

	startTime time.Time
	snapshot  counters
}

type counters struct {
	runs    atomic.Int64
	errors  atomic.Int64
	records atomic.Int64
}

// Snapshot holds current totals for the JSON health endpoint.
type Snapshot struct {
	Runs    int64   `json:"runs"`
	Errors  int64   `json:"errors"`
	Records int64   `json:"records"`
	Uptime  float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector with a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{registry: reg, startTime: time.Now()}

	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP API requests",
		},
		[]string{"method", "path", "status"},
	)
	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP API request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	m.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of query runs",
		},
		[]string{"status"},
	)
	m.CommandsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of executed commands",
		},
		[]string{"kind", "status"},
	)
	m.CommandDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Command execution time in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 30},
		},
		[]string{"kind"},
	)
	m.RecordsExtracted = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_extracted_total",
			Help:      "Total number of records produced by EXTRACT",
		},
	)
	m.RecordsDelivered = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_delivered_total",
			Help:      "Total number of records written by OUTPUT",
		},
		[]string{"format"},
	)

	m.FetchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Total number of page fetches",
		},
		[]string{"scheme", "status"},
	)
	m.FetchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Page fetch duration in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"scheme"},
	)
	m.FetchBytes = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_size_bytes",
			Help:      "Fetched page size in bytes",
			Buckets:   []float64{1000, 10000, 100000, 1000000, 10000000},
		},
	)
	m.CacheHits = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cache_hits_total",
			Help:      "Total number of pages served from the page cache",
		},
	)
	m.BreakerState = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state per host (0 closed, 1 half-open, 2 open)",
		},
		[]string{"host"},
	)

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WriteTextfile dumps the registry for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return errors.New("metrics disabled")
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// RecordHTTPRequest records an HTTP API request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRun records a finished query run.
func (m *Metrics) RecordRun(err error) {
	if m == nil {
		return
	}
	m.snapshot.runs.Add(1)
	if err != nil {
		m.snapshot.errors.Add(1)
	}
	m.RunsTotal.WithLabelValues(status(err)).Inc()
}

// RecordCommand records one command execution.
func (m *Metrics) RecordCommand(kind string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.CommandsTotal.WithLabelValues(kind, status(err)).Inc()
	m.CommandDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// AddRecordsExtracted counts records produced by EXTRACT.
func (m *Metrics) AddRecordsExtracted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.snapshot.records.Add(int64(n))
	m.RecordsExtracted.Add(float64(n))
}

// AddRecordsDelivered counts records written in format.
func (m *Metrics) AddRecordsDelivered(format string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsDelivered.WithLabelValues(format).Add(float64(n))
}

// RecordFetch records one page fetch.
func (m *Metrics) RecordFetch(scheme string, duration time.Duration, size int, err error) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(scheme, status(err)).Inc()
	m.FetchDuration.WithLabelValues(scheme).Observe(duration.Seconds())
	if err == nil {
		m.FetchBytes.Observe(float64(size))
	}
}

// IncCacheHits counts a page cache hit.
func (m *Metrics) IncCacheHits() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// SetBreakerState records a host breaker transition.
func (m *Metrics) SetBreakerState(host string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(host).Set(float64(state))
}

// Snapshot returns the current totals.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		Runs:    m.snapshot.runs.Load(),
		Errors:  m.snapshot.errors.Load(),
		Records: m.snapshot.records.Load(),
		Uptime:  time.Since(m.startTime).Seconds(),
	}
}

// status labels err with its error kind, or "ok".
func status(err error) string {
	if err == nil {
		return StatusOK
	}
	if k := errs.KindOf(err); k != errs.KindUnknown {
		return strings.ReplaceAll(k.String(), " ", "_")
	}
	return StatusError
}
