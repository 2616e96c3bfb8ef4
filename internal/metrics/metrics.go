// Package metrics exposes Prometheus counters for pipeline runs, served
// on an optional endpoint for CI environments that scrape scan jobs.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline instrumentation.
type Metrics struct {
	RecordsFetched   *prometheus.CounterVec
	RecordsDropped   prometheus.Counter
	FindingsTotal    *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	registry         *prometheus.Registry
}

// New creates and registers the scan metrics on a private registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.RecordsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vulnplan_records_fetched_total",
			Help: "Raw records fetched, by source",
		},
		[]string{"source"},
	)
	m.RecordsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vulnplan_records_dropped_total",
			Help: "Records that matched no asset in the inventory",
		},
	)
	m.FindingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vulnplan_findings_total",
			Help: "Findings produced, by phase tier",
		},
		[]string{"tier"},
	)
	m.PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vulnplan_pipeline_duration_seconds",
			Help:    "End-to-end pipeline duration",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.registry.MustRegister(m.RecordsFetched, m.RecordsDropped, m.FindingsTotal, m.PipelineDuration)
	return m
}

// ObservePipeline records one pipeline run's duration.
func (m *Metrics) ObservePipeline(start time.Time) {
	m.PipelineDuration.Observe(time.Since(start).Seconds())
}

// Serve exposes /metrics on the given port in the background.
func (m *Metrics) Serve(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go srv.ListenAndServe()
	return srv
}
