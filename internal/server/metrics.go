package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aleksaelezovic/rdfpreview/pkg/ingest"
)

// metrics owns a private registry so that several servers can coexist in
// one process
type metrics struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	ingestDuration *prometheus.HistogramVec
	triples        *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rdfpreview_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		ingestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rdfpreview_ingest_duration_seconds",
			Help:    "Time spent ingesting a document.",
			Buckets: prometheus.DefBuckets,
		}, []string{"format"}),
		triples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rdfpreview_ingest_triples_total",
			Help: "Triples added to triple stores.",
		}, []string{"format"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rdfpreview_ingest_skipped_triples_total",
			Help: "Triples dropped because of malformed terms.",
		}, []string{"format"}),
		ingestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rdfpreview_ingest_errors_total",
			Help: "Ingestions that failed to decode.",
		}, []string{"format"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rdfpreview_cache_lookups_total",
			Help: "Rendered page cache lookups by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.requests, m.ingestDuration, m.triples, m.skipped, m.ingestErrors, m.cacheLookups)
	return m
}

// ObserveIngest implements ingest.Observer
func (m *metrics) ObserveIngest(stats ingest.Stats, err error) {
	format := string(stats.Format)
	m.ingestDuration.WithLabelValues(format).Observe(stats.Duration.Seconds())
	if err != nil {
		m.ingestErrors.WithLabelValues(format).Inc()
		return
	}
	m.triples.WithLabelValues(format).Add(float64(stats.Triples))
	m.skipped.WithLabelValues(format).Add(float64(stats.Skipped))
}

func (m *metrics) cacheHit(hit bool) {
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
