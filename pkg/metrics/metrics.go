// Package metrics exposes prometheus collectors for parsing, importing and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the question-bank collectors
type Metrics struct {
	ParseTotal      *prometheus.CounterVec
	ParsedRecords   *prometheus.CounterVec
	ParseDuration   *prometheus.HistogramVec
	ImportRecords   *prometheus.CounterVec
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		ParseTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qbank_parse_total",
				Help: "Total number of parse calls",
			},
			[]string{"kind"},
		),
		ParsedRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qbank_parsed_records_total",
				Help: "Total number of records produced by the parsers",
			},
			[]string{"kind"},
		),
		ParseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qbank_parse_duration_seconds",
				Help:    "Duration of parse calls",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"kind"},
		),
		ImportRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qbank_import_records_total",
				Help: "Records seen by import, by outcome",
			},
			[]string{"kind", "result"},
		),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "qbank_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qbank_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.ParseTotal,
		m.ParsedRecords,
		m.ParseDuration,
		m.ImportRecords,
		m.RequestCounter,
		m.RequestDuration,
	)
	return m
}

// ObserveParse records one parse call
func (m *Metrics) ObserveParse(kind string, records int, elapsed time.Duration) {
	m.ParseTotal.WithLabelValues(kind).Inc()
	m.ParsedRecords.WithLabelValues(kind).Add(float64(records))
	m.ParseDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveImport records import outcomes: imported, invalid or duplicate
func (m *Metrics) ObserveImport(kind, result string, n int) {
	if n <= 0 {
		return
	}
	m.ImportRecords.WithLabelValues(kind, result).Add(float64(n))
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware counts requests by route pattern and status.
// route resolves the pattern for a request after the handler ran.
func (m *Metrics) Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			endpoint := route(r)
			m.RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(sw.status)).Inc()
			m.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
