package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry    *prometheus.Registry
	saves       *prometheus.CounterVec
	saveLatency prometheus.Histogram
	exports     *prometheus.CounterVec
	uploads     *prometheus.CounterVec
	sessions    prometheus.Gauge
	requests    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proposals",
			Name:      "saves_total",
			Help:      "Proposal save attempts by outcome.",
		}, []string{"outcome"}),
		saveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "proposals",
			Name:      "save_duration_seconds",
			Help:      "Time spent writing a proposal.",
			Buckets:   prometheus.DefBuckets,
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proposals",
			Name:      "exports_total",
			Help:      "Document exports by format and outcome.",
		}, []string{"format", "outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proposals",
			Name:      "uploads_total",
			Help:      "Image uploads by outcome.",
		}, []string{"outcome"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "proposals",
			Name:      "editing_sessions",
			Help:      "Open editing sessions.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proposals",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "method", "status"}),
	}
	m.registry.MustRegister(
		m.saves, m.saveLatency, m.exports, m.uploads, m.sessions, m.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveSave(outcome string, elapsed time.Duration) {
	m.saves.WithLabelValues(outcome).Inc()
	m.saveLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveExport(format string, err error) {
	m.exports.WithLabelValues(format, outcome(err)).Inc()
}

func (m *Metrics) ObserveUpload(err error) {
	m.uploads.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) SessionOpened() { m.sessions.Inc() }

func (m *Metrics) SessionClosed() { m.sessions.Dec() }

func (m *Metrics) ObserveRequest(route, method string, status int) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
