// Package metrics counts what each ingestion stage did and writes the counters
// in the Prometheus text format for the node exporter textfile collector.
//
// All methods are safe to call on a nil *Metrics, so stages can take an
// optional collector without branching.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docingest"

// Metrics holds the counters of one invocation.
type Metrics struct {
	registry *prometheus.Registry

	fetches     *prometheus.CounterVec
	links       prometheus.Counter
	stores      *prometheus.CounterVec
	storedBytes prometheus.Counter
	blocked     *prometheus.CounterVec
	processed   *prometheus.CounterVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "HTTP fetch attempts by stage and outcome.",
		}, []string{"stage", "outcome"}),
		links: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_accepted_total",
			Help:      "Distinct links accepted by the crawl filters.",
		}),
		stores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_store_writes_total",
			Help:      "Content store puts by result (written or deduplicated).",
		}, []string{"result"}),
		storedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_store_bytes_total",
			Help:      "Bytes newly written to the content store.",
		}),
		blocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocked_total",
			Help:      "Fetched responses rejected by content policy.",
		}, []string{"reason"}),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "processed_total",
			Help:      "Process stage results by result (ok, skipped, error).",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.fetches, m.links, m.stores, m.storedBytes, m.blocked, m.processed)
	return m
}

// ObserveFetch counts one fetch attempt.
func (m *Metrics) ObserveFetch(stage, outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(stage, outcome).Inc()
}

// AddLinks counts accepted crawl links.
func (m *Metrics) AddLinks(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.links.Add(float64(n))
}

// ObserveStore counts one content store put.
func (m *Metrics) ObserveStore(written bool, size int) {
	if m == nil {
		return
	}
	if !written {
		m.stores.WithLabelValues("deduplicated").Inc()
		return
	}
	m.stores.WithLabelValues("written").Inc()
	m.storedBytes.Add(float64(size))
}

// ObserveBlocked counts one content-policy block.
func (m *Metrics) ObserveBlocked(reason string) {
	if m == nil {
		return
	}
	m.blocked.WithLabelValues(reason).Inc()
}

// ObserveProcessed counts one process stage result.
func (m *Metrics) ObserveProcessed(result string) {
	if m == nil {
		return
	}
	m.processed.WithLabelValues(result).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all counters to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
