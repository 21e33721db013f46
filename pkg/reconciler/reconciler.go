package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/pipebuilder/internal/logging"
	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/graph"
	"github.com/aretw0/pipebuilder/pkg/schema"
	"github.com/aretw0/pipebuilder/pkg/store"
)

// DefaultDebounce is the validation delay after the last keystroke.
const DefaultDebounce = 5 * time.Millisecond

// ErrReadOnly is returned by Edit when the pipeline is opened read-only.
var ErrReadOnly = errors.New("pipeline is read-only")

// Status is the outcome of one validation cycle.
type Status string

const (
	StatusCommitted Status = "committed"
	StatusRejected  Status = "rejected"
	StatusUnchanged Status = "unchanged"
	StatusDiscarded Status = "discarded"
)

// Outcome reports the end of a validation cycle.
type Outcome struct {
	NodeID   string
	Sequence uint64
	Status   Status
	Errors   []*schema.ValidationError
}

// Reconciler owns the edit cycle of a single node.
// Safe for concurrent use.
type Reconciler struct {
	nodeID   string
	store    *store.Store
	clock    Clock
	debounce time.Duration
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	onResult func(Outcome)

	seq atomic.Uint64

	mu          sync.Mutex
	schema      *schema.Schema
	stop        func() bool
	pending     map[string]any
	pendingSeq  uint64
	committing  bool
	lastWritten map[string]any
	last        Outcome
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(r *Reconciler) {
		r.clock = c
	}
}

// WithDebounce changes the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(r *Reconciler) {
		r.debounce = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Reconciler) {
		r.hooks = hooks
	}
}

// WithOutcomeHandler receives every cycle outcome, e.g. to surface errors inline.
func WithOutcomeHandler(fn func(Outcome)) Option {
	return func(r *Reconciler) {
		r.onResult = fn
	}
}

// New creates a reconciler for nodeID. A nil schema accepts any configuration.
func New(nodeID string, st *store.Store, s *schema.Schema, opts ...Option) *Reconciler {
	r := &Reconciler{
		nodeID:   nodeID,
		store:    st,
		schema:   s,
		clock:    realClock{},
		debounce: DefaultDebounce,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NodeID returns the node this reconciler writes to.
func (r *Reconciler) NodeID() string { return r.nodeID }

// SetSchema swaps the definition schema, e.g. once it has been fetched.
func (r *Reconciler) SetSchema(s *schema.Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schema = s
}

// LastOutcome returns the most recent cycle outcome.
func (r *Reconciler) LastOutcome() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Edit records new form values and restarts the debounce window.
// A task change clears the advanced configuration pointer right away.
func (r *Reconciler) Edit(values map[string]any) error {
	if r.store.ReadOnly() {
		return ErrReadOnly
	}
	node, ok := r.store.Node(r.nodeID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, r.nodeID)
	}

	values = domain.CloneMap(values)
	seq := r.seq.Add(1)

	if taskOf(values) != node.Task() {
		r.store.UpdateCurrentAdvancedConfigurationNodeID(func(prev string) string {
			if prev == r.nodeID {
				return ""
			}
			return prev
		})
	}

	r.mu.Lock()
	if r.stop != nil {
		r.stop()
	}
	r.pending, r.pendingSeq = values, seq
	r.stop = r.clock.AfterFunc(r.debounce, func() { r.fire(seq, values) })
	r.mu.Unlock()

	r.logger.Debug("reconciler: edit", "node_id", r.nodeID, "seq", seq)
	if r.hooks.OnEdit != nil {
		r.hooks.OnEdit(context.Background(), r.event(domain.EventEdit, seq, 0))
	}
	return nil
}

// Cancel drops the pending edit, if any.
func (r *Reconciler) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
}

// Flush runs the pending validation now instead of waiting for the debounce window.
// It reports false when nothing was pending.
func (r *Reconciler) Flush() (Outcome, bool) {
	r.mu.Lock()
	if r.stop == nil || !r.stop() {
		r.mu.Unlock()
		return Outcome{}, false
	}
	r.stop = nil
	seq, values := r.pendingSeq, r.pending
	r.mu.Unlock()

	r.fire(seq, values)
	return r.LastOutcome(), true
}

func (r *Reconciler) fire(seq uint64, values map[string]any) {
	if seq != r.seq.Load() {
		r.finish(Outcome{NodeID: r.nodeID, Sequence: seq, Status: StatusDiscarded})
		return
	}

	r.mu.Lock()
	if r.committing {
		// a commit is in flight for this node: retry after it instead of nesting
		r.stop = r.clock.AfterFunc(r.debounce, func() { r.fire(seq, values) })
		r.mu.Unlock()
		return
	}
	r.committing = true
	r.stop = nil
	s := r.schema
	lastWritten := r.lastWritten
	r.mu.Unlock()

	outcome := r.validateAndCommit(seq, values, s, lastWritten)

	r.mu.Lock()
	r.committing = false
	r.mu.Unlock()

	r.finish(outcome)
}

func (r *Reconciler) validateAndCommit(seq uint64, values map[string]any, s *schema.Schema, lastWritten map[string]any) Outcome {
	out := Outcome{NodeID: r.nodeID, Sequence: seq}

	v, _ := schema.Transform(s, schema.ConditionsFromConfiguration(s, values))
	res := v.SafeParse(values)
	if !res.Success {
		out.Status = StatusRejected
		out.Errors = res.Errors
		return out
	}
	parsed, ok := res.Data.(map[string]any)
	if !ok {
		parsed = values
	}

	if reflect.DeepEqual(parsed, lastWritten) {
		out.Status = StatusUnchanged
		return out
	}

	committed := false
	var written map[string]any
	r.store.Update(func(st *store.State) {
		if seq != r.seq.Load() {
			return
		}
		i := domain.FindNode(st.Nodes, r.nodeID)
		if i < 0 {
			return
		}
		current := st.Nodes[i].Configuration
		if reflect.DeepEqual(parsed, current) {
			return
		}
		written = mergeConfiguration(current, parsed)
		st.Nodes[i].Configuration = written
		st.Edges = graph.ComposeFromNodes(st.Nodes)
		st.PipelineRecipeIsDirty = true
		committed = true
	})

	switch {
	case committed:
		out.Status = StatusCommitted
		r.mu.Lock()
		r.lastWritten = domain.CloneMap(parsed)
		r.mu.Unlock()
	case seq != r.seq.Load():
		out.Status = StatusDiscarded
	default:
		out.Status = StatusUnchanged
	}
	return out
}

func (r *Reconciler) finish(o Outcome) {
	r.mu.Lock()
	r.last = o
	r.mu.Unlock()

	ctx := context.Background()
	switch o.Status {
	case StatusCommitted:
		r.logger.Debug("reconciler: committed", "node_id", r.nodeID, "seq", o.Sequence)
		if r.hooks.OnCommit != nil {
			r.hooks.OnCommit(ctx, r.event(domain.EventCommit, o.Sequence, 0))
		}
		if r.hooks.OnGraphChange != nil {
			snap := r.store.Snapshot()
			r.hooks.OnGraphChange(ctx, &domain.GraphEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventGraph},
				Nodes:     len(snap.Nodes),
				Edges:     len(snap.Edges),
			})
		}
	case StatusRejected:
		r.logger.Debug("reconciler: rejected", "node_id", r.nodeID, "seq", o.Sequence, "errors", len(o.Errors))
		if r.hooks.OnReject != nil {
			r.hooks.OnReject(ctx, r.event(domain.EventReject, o.Sequence, len(o.Errors)))
		}
	case StatusDiscarded:
		if r.hooks.OnDiscard != nil {
			r.hooks.OnDiscard(ctx, r.event(domain.EventDiscard, o.Sequence, 0))
		}
	}

	if r.onResult != nil {
		r.onResult(o)
	}
}

func (r *Reconciler) event(t domain.EventType, seq uint64, errs int) *domain.ReconcileEvent {
	return &domain.ReconcileEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: t},
		NodeID:    r.nodeID,
		Sequence:  seq,
		Errors:    errs,
	}
}
