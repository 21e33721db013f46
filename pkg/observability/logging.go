package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

// LoggingHooks records every lifecycle event at debug level, rejects at info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEdit: func(ctx context.Context, e *domain.ReconcileEvent) {
			logger.DebugContext(ctx, "node_edit", "node_id", e.NodeID, "seq", e.Sequence)
		},
		OnCommit: func(ctx context.Context, e *domain.ReconcileEvent) {
			logger.DebugContext(ctx, "node_commit", "node_id", e.NodeID, "seq", e.Sequence)
		},
		OnReject: func(ctx context.Context, e *domain.ReconcileEvent) {
			logger.InfoContext(ctx, "node_reject", "node_id", e.NodeID, "seq", e.Sequence, "errors", e.Errors)
		},
		OnDiscard: func(ctx context.Context, e *domain.ReconcileEvent) {
			logger.DebugContext(ctx, "node_discard", "node_id", e.NodeID, "seq", e.Sequence)
		},
		OnGraphChange: func(ctx context.Context, e *domain.GraphEvent) {
			logger.DebugContext(ctx, "graph_change", "nodes", e.Nodes, "edges", e.Edges)
		},
	}
}
