// Package metrics exposes Prometheus metrics for the asset gateway on a
// dedicated listener, separate from the API server.
package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels recorded on load and store counters.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// MetricsServer serves the /metrics endpoint and owns the gateway's
// collectors.
type MetricsServer struct {
	registry *prometheus.Registry
	srv      *http.Server

	loads         *prometheus.CounterVec
	stores        *prometheus.CounterVec
	loadDuration  *prometheus.HistogramVec
	storeDuration *prometheus.HistogramVec
}

// New creates a metrics server for the given service name and listen address.
// The name becomes the metric namespace with dashes mapped to underscores.
func New(name, listenAddr string) (*MetricsServer, error) {
	namespace := strings.ReplaceAll(name, "-", "_")
	registry := prometheus.NewRegistry()

	m := &MetricsServer{
		registry: registry,
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_loads_total",
			Help:      "Asset load requests by type and outcome.",
		}, []string{"asset_type", "outcome"}),
		stores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_stores_total",
			Help:      "Asset store requests by type and outcome.",
		}, []string{"asset_type", "outcome"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "asset_load_duration_seconds",
			Help:      "Asset load latency by type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"asset_type"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "asset_store_duration_seconds",
			Help:      "Asset store latency by type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"asset_type"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.loads,
		m.stores,
		m.loadDuration,
		m.storeDuration,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	m.srv = &http.Server{
		Addr:    listenAddr,
		Handler: mux,
	}

	return m, nil
}

// RecordLoad counts one load request and its latency.
func (m *MetricsServer) RecordLoad(assetType, outcome string, duration time.Duration) {
	m.loads.WithLabelValues(assetType, outcome).Inc()
	m.loadDuration.WithLabelValues(assetType).Observe(duration.Seconds())
}

// RecordStore counts one store request and its latency.
func (m *MetricsServer) RecordStore(assetType, outcome string, duration time.Duration) {
	m.stores.WithLabelValues(assetType, outcome).Inc()
	m.storeDuration.WithLabelValues(assetType).Observe(duration.Seconds())
}

// RegisterCacheStats exposes the built-in cache counters as gauges. The
// callbacks are invoked at scrape time.
func (m *MetricsServer) RegisterCacheStats(namespace string, size func() float64, hits func() float64, misses func() float64) {
	ns := strings.ReplaceAll(namespace, "-", "_")
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "cache_assets",
			Help:      "Number of assets held by the built-in cache.",
		}, size),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_hits_total",
			Help:      "Built-in cache lookup hits.",
		}, hits),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_misses_total",
			Help:      "Built-in cache lookup misses.",
		}, misses),
	)
}

// ListenAndServe starts the metrics listener and blocks until shutdown.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics listener.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
