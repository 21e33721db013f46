package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/observability"
)

func TestMetrics_Hooks(t *testing.T) {
	m := observability.NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnEdit(ctx, &domain.ReconcileEvent{NodeID: "a"})
	hooks.OnEdit(ctx, &domain.ReconcileEvent{NodeID: "a"})
	hooks.OnCommit(ctx, &domain.ReconcileEvent{NodeID: "a"})
	hooks.OnReject(ctx, &domain.ReconcileEvent{NodeID: "a", Errors: 3})
	hooks.OnGraphChange(ctx, &domain.GraphEvent{Nodes: 4, Edges: 2})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	assert.Contains(t, body, "pipebuilder_edits_total 2")
	assert.Contains(t, body, `pipebuilder_reconcile_outcomes_total{status="committed"} 1`)
	assert.Contains(t, body, `pipebuilder_reconcile_outcomes_total{status="rejected"} 1`)
	assert.Contains(t, body, "pipebuilder_validation_errors_total 3")
	assert.Contains(t, body, "pipebuilder_graph_nodes 4")
	assert.Contains(t, body, "pipebuilder_graph_edges 2")
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := observability.NewMetrics()
	m.ObserveRequest("/validate", "200")
	m.ObserveRequest("/validate", "200")

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "pipebuilder_http_requests_total" {
			continue
		}
		require.Len(t, f.GetMetric(), 1)
		assert.Equal(t, float64(2), f.GetMetric()[0].GetCounter().GetValue())
		return
	}
	t.Fatal("pipebuilder_http_requests_total not gathered")
}

func TestChainHooks(t *testing.T) {
	var order []string
	first := domain.LifecycleHooks{
		OnCommit: func(context.Context, *domain.ReconcileEvent) { order = append(order, "first") },
	}
	second := domain.LifecycleHooks{
		OnCommit:      func(context.Context, *domain.ReconcileEvent) { order = append(order, "second") },
		OnGraphChange: func(context.Context, *domain.GraphEvent) { order = append(order, "graph") },
	}

	chained := observability.ChainHooks(first, second)
	chained.OnCommit(context.Background(), &domain.ReconcileEvent{})
	chained.OnGraphChange(context.Background(), &domain.GraphEvent{})

	assert.Equal(t, []string{"first", "second", "graph"}, order)
	assert.Nil(t, chained.OnReject, "no source defines OnReject")
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	hooks := observability.LoggingHooks(logger)
	hooks.OnCommit(context.Background(), &domain.ReconcileEvent{NodeID: "a"})
	hooks.OnReject(context.Background(), &domain.ReconcileEvent{NodeID: "a", Errors: 2})

	out := buf.String()
	assert.NotContains(t, out, "node_commit")
	assert.Contains(t, out, "node_reject")
	assert.Contains(t, out, "errors=2")
}
