package observability

import (
	"context"

	"github.com/aretw0/pipebuilder/pkg/domain"
)

// ChainHooks combines several hook sets into one. Callbacks run in argument order;
// nil callbacks are skipped.
func ChainHooks(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	reconcile := func(pick func(domain.LifecycleHooks) func(context.Context, *domain.ReconcileEvent)) func(context.Context, *domain.ReconcileEvent) {
		var fns []func(context.Context, *domain.ReconcileEvent)
		for _, h := range hooks {
			if fn := pick(h); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			return nil
		}
		return func(ctx context.Context, e *domain.ReconcileEvent) {
			for _, fn := range fns {
				fn(ctx, e)
			}
		}
	}

	var graphFns []func(context.Context, *domain.GraphEvent)
	for _, h := range hooks {
		if h.OnGraphChange != nil {
			graphFns = append(graphFns, h.OnGraphChange)
		}
	}
	out := domain.LifecycleHooks{
		OnEdit:    reconcile(func(h domain.LifecycleHooks) func(context.Context, *domain.ReconcileEvent) { return h.OnEdit }),
		OnCommit:  reconcile(func(h domain.LifecycleHooks) func(context.Context, *domain.ReconcileEvent) { return h.OnCommit }),
		OnReject:  reconcile(func(h domain.LifecycleHooks) func(context.Context, *domain.ReconcileEvent) { return h.OnReject }),
		OnDiscard: reconcile(func(h domain.LifecycleHooks) func(context.Context, *domain.ReconcileEvent) { return h.OnDiscard }),
	}
	if len(graphFns) > 0 {
		out.OnGraphChange = func(ctx context.Context, e *domain.GraphEvent) {
			for _, fn := range graphFns {
				fn(ctx, e)
			}
		}
	}
	return out
}
