package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

const namespace = "pipebuilder"

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	registry *prometheus.Registry

	edits            prometheus.Counter
	outcomes         *prometheus.CounterVec
	validationErrors prometheus.Counter
	nodes            prometheus.Gauge
	edges            prometheus.Gauge
	requests         *prometheus.CounterVec
}

// NewMetrics registers the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		edits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edits_total",
			Help:      "Total number of configuration edits submitted.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_outcomes_total",
			Help:      "Edit cycles by outcome.",
		}, []string{"status"}),
		validationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Validation errors reported by rejected edits.",
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes in the most recently changed graph.",
		}),
		edges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edges in the most recently changed graph.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(m.edits, m.outcomes, m.validationErrors, m.nodes, m.edges, m.requests)
	return m
}

// Registry exposes the underlying registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest counts one served HTTP request.
func (m *Metrics) ObserveRequest(route, code string) {
	m.requests.WithLabelValues(route, code).Inc()
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEdit: func(context.Context, *domain.ReconcileEvent) {
			m.edits.Inc()
		},
		OnCommit: func(context.Context, *domain.ReconcileEvent) {
			m.outcomes.WithLabelValues("committed").Inc()
		},
		OnReject: func(_ context.Context, e *domain.ReconcileEvent) {
			m.outcomes.WithLabelValues("rejected").Inc()
			m.validationErrors.Add(float64(e.Errors))
		},
		OnDiscard: func(context.Context, *domain.ReconcileEvent) {
			m.outcomes.WithLabelValues("discarded").Inc()
		},
		OnGraphChange: func(_ context.Context, e *domain.GraphEvent) {
			m.nodes.Set(float64(e.Nodes))
			m.edges.Set(float64(e.Edges))
		},
	}
}
