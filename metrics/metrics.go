// Package metrics holds the run metrics of a documentation build. Metrics
// are kept in a private registry and written as a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "skosdoc"

// Metrics collects counters for one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	conceptsRendered *prometheus.CounterVec   // By dialect
	definitions      *prometheus.CounterVec   // By outcome: literal, generated, empty, failed
	collisions       prometheus.Counter       // Identifier mint retries
	pages            *prometheus.CounterVec   // By action: created, updated, unchanged, dry-run, failed
	renderDuration   *prometheus.HistogramVec // By dialect
}

// New creates and registers the metrics.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		conceptsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concepts_rendered_total",
			Help:      "Concept blocks rendered",
		}, []string{"dialect"}),

		definitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "definitions_total",
			Help:      "Definitions resolved, by outcome",
		}, []string{"outcome"}),

		collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identifier_collisions_total",
			Help:      "Identifier mint attempts rejected as duplicates",
		}),

		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_pages_total",
			Help:      "Pages handled by the publisher, by action",
		}, []string{"action"}),

		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Document render duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"dialect"}),
	}

	for _, c := range []prometheus.Collector{m.conceptsRendered, m.definitions, m.collisions, m.pages, m.renderDuration} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return m, nil
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ConceptRendered counts one rendered concept block.
func (m *Metrics) ConceptRendered(dialect string) {
	if m == nil {
		return
	}
	m.conceptsRendered.WithLabelValues(dialect).Inc()
}

// Definition counts one definition outcome.
func (m *Metrics) Definition(outcome string) {
	if m == nil {
		return
	}
	m.definitions.WithLabelValues(outcome).Inc()
}

// Collision counts one rejected identifier.
func (m *Metrics) Collision() {
	if m == nil {
		return
	}
	m.collisions.Inc()
}

// Page counts one publish action.
func (m *Metrics) Page(action string) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(action).Inc()
}

// ObserveRender records how long rendering a document took.
func (m *Metrics) ObserveRender(dialect string, d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.WithLabelValues(dialect).Observe(d.Seconds())
}

// WriteTextfile writes every metric to path in the text exposition format,
// atomically, for the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
