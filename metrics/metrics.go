// Package metrics holds the Prometheus metrics for seeding and fetching.
// All methods are safe on a nil *Metrics so callers never need to check.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Item outcomes.
const (
	OutcomeWritten = "written"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Registry *prometheus.Registry

	ItemsTotal    *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	SeededTotal   *prometheus.CounterVec
	Processed     *prometheus.GaugeVec
}

// New registers every metric on a fresh private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ItemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "govcrawl_items_total",
			Help: "Items handled by the fetcher, by origin, document type and outcome.",
		}, []string{"origin", "type", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "govcrawl_fetch_duration_seconds",
			Help:    "Time spent turning a single item into text.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"type"}),
		SeededTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "govcrawl_seeded_urls_total",
			Help: "URLs discovered per origin by the seeder.",
		}, []string{"origin"}),
		Processed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "govcrawl_progress_processed",
			Help: "Items processed so far for the origin in the current run.",
		}, []string{"origin"}),
	}
	m.Registry.MustRegister(
		m.ItemsTotal,
		m.FetchDuration,
		m.SeededTotal,
		m.Processed,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveItem counts one finished item by type and outcome.
func (m *Metrics) ObserveItem(origin, docType, outcome string) {
	if m == nil {
		return
	}
	m.ItemsTotal.WithLabelValues(origin, docType, outcome).Inc()
}

// ObserveFetch records how long one item took to turn into text.
func (m *Metrics) ObserveFetch(docType string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(docType).Observe(d.Seconds())
}

// AddSeeded adds n discovered URLs for origin.
func (m *Metrics) AddSeeded(origin string, n int) {
	if m == nil {
		return
	}
	m.SeededTotal.WithLabelValues(origin).Add(float64(n))
}

// SetProgress reports the processed count for origin.
func (m *Metrics) SetProgress(origin string, processed int) {
	if m == nil {
		return
	}
	m.Processed.WithLabelValues(origin).Set(float64(processed))
}
