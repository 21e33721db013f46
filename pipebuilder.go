package pipebuilder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/pipebuilder/internal/logging"
	loamAdapter "github.com/aretw0/pipebuilder/pkg/adapters/loam"
	"github.com/aretw0/pipebuilder/pkg/adapters/memory"
	"github.com/aretw0/pipebuilder/pkg/catalog"
	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/form"
	"github.com/aretw0/pipebuilder/pkg/graph"
	"github.com/aretw0/pipebuilder/pkg/hint"
	"github.com/aretw0/pipebuilder/pkg/ports"
	"github.com/aretw0/pipebuilder/pkg/reconciler"
	"github.com/aretw0/pipebuilder/pkg/schema"
	"github.com/aretw0/pipebuilder/pkg/store"
)

var (
	// ErrReservedNode is returned when an operation would remove, rename or copy the start or end operator.
	ErrReservedNode = errors.New("start and end operators cannot be changed this way")
	// ErrNoRecipeStore is returned by Save and Load when no RecipeStore is configured.
	ErrNoRecipeStore = errors.New("no recipe store configured")
	// ErrFieldNotFound is returned when a hint session targets an unknown field.
	ErrFieldNotFound = errors.New("field not found")
)

// Builder is the high-level entry point of the library. It owns one pipeline:
// the shared store, a reconciler per edited node, and the definition catalog.
// Safe for concurrent use.
type Builder struct {
	store      *store.Store
	catalog    *catalog.Catalog
	source     ports.DefinitionSource
	recipes    ports.RecipeStore
	pipelineID string
	uid        string

	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	clock    reconciler.Clock
	debounce time.Duration
	readOnly bool
	onResult func(reconciler.Outcome)

	mu          sync.Mutex
	reconcilers map[string]*reconciler.Reconciler
}

// Option defines a functional option for configuring the Builder.
type Option func(*Builder)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Builder) {
		b.hooks = hooks
	}
}

// WithSource injects a custom DefinitionSource, bypassing the default Loam initialization.
func WithSource(src ports.DefinitionSource) Option {
	return func(b *Builder) {
		b.source = src
	}
}

// WithCatalog shares an existing catalog between builders.
func WithCatalog(c *catalog.Catalog) Option {
	return func(b *Builder) {
		b.catalog = c
	}
}

// WithRecipeStore enables Save and Load against store under pipelineID.
func WithRecipeStore(recipes ports.RecipeStore, pipelineID string) Option {
	return func(b *Builder) {
		b.recipes = recipes
		b.pipelineID = pipelineID
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithClock replaces the clock driving edit debouncing.
func WithClock(c reconciler.Clock) Option {
	return func(b *Builder) {
		b.clock = c
	}
}

// WithDebounce changes the edit debounce window.
func WithDebounce(d time.Duration) Option {
	return func(b *Builder) {
		b.debounce = d
	}
}

// WithReadOnly opens the pipeline read-only: edits are refused and forms are disabled.
func WithReadOnly() Option {
	return func(b *Builder) {
		b.readOnly = true
	}
}

// WithOutcomeHandler receives the outcome of every edit cycle.
func WithOutcomeHandler(fn func(reconciler.Outcome)) Option {
	return func(b *Builder) {
		b.onResult = fn
	}
}

// New initializes a Builder holding an empty pipeline (start and end operators).
// By default definitions are read from a Loam repository at definitionsDir.
// If WithSource or WithCatalog is provided, definitionsDir may be empty; with
// neither, every component is edited free-form.
func New(definitionsDir string, opts ...Option) (*Builder, error) {
	b := &Builder{
		reconcilers: make(map[string]*reconciler.Reconciler),
		debounce:    reconciler.DefaultDebounce,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if b.recipes != nil {
		if err := domain.ValidateID(b.pipelineID); err != nil {
			return nil, fmt.Errorf("invalid pipeline id: %w", err)
		}
		b.logger = b.logger.With("pipeline_id", b.pipelineID)
	}

	if b.catalog == nil {
		if b.source == nil {
			if definitionsDir != "" {
				loader, err := loamAdapter.Open(definitionsDir)
				if err != nil {
					return nil, err
				}
				b.source = loader
			} else {
				b.source = memory.NewFromSpecs(nil)
			}
		}
		b.catalog = catalog.New(b.source, catalog.WithLogger(b.logger))
	}

	b.store = store.New(store.WithLogger(b.logger))
	b.store.UpdateReadOnly(func(bool) bool { return b.readOnly })
	if err := b.install(context.Background(), emptyPipeline()); err != nil {
		return nil, err
	}
	return b, nil
}

func emptyPipeline() *domain.Recipe {
	return domain.NewRecipe([]domain.PipelineNode{
		{ID: domain.StartNodeID, NodeType: domain.NodeTypeOperator,
			DefinitionName: domain.OperatorDefinitionPrefix + domain.StartNodeID,
			Configuration:  map[string]any{domain.KeyMetadata: map[string]any{}}},
		{ID: domain.EndNodeID, NodeType: domain.NodeTypeOperator,
			DefinitionName: domain.OperatorDefinitionPrefix + domain.EndNodeID,
			Configuration:  map[string]any{domain.KeyInput: map[string]any{}}},
	})
}

// Store exposes the shared state container.
func (b *Builder) Store() *store.Store { return b.store }

// Catalog exposes the definition catalog.
func (b *Builder) Catalog() *catalog.Catalog { return b.catalog }

// Graph returns the current nodes and edges.
func (b *Builder) Graph() *domain.Graph { return b.store.Snapshot().Graph() }

// Subscribe registers l for store snapshots. The returned function unregisters it.
func (b *Builder) Subscribe(l store.Listener) func() { return b.store.Subscribe(l) }

func (b *Builder) writable() error {
	if b.store.ReadOnly() {
		return reconciler.ErrReadOnly
	}
	return nil
}

// AddNode appends a component of the given definition. Its id is derived from the
// definition name and its task defaults to the first branch of the definition.
func (b *Builder) AddNode(ctx context.Context, definitionName string) (domain.PipelineNode, error) {
	if err := b.writable(); err != nil {
		return domain.PipelineNode{}, err
	}
	cfg := map[string]any{}
	if s := b.catalog.Schema(ctx, definitionName); s != nil {
		for path, value := range schema.DefaultConditions(s, cfg) {
			setPath(cfg, path, value)
		}
	}

	var node domain.PipelineNode
	b.store.Update(func(st *store.State) {
		prefix := graph.IDPrefix(definitionName)
		node = domain.PipelineNode{
			ID:             fmt.Sprintf("%s_%d", prefix, graph.NextComponentIndex(domain.NodeIDs(st.Nodes), prefix)),
			NodeType:       domain.InferNodeType("", definitionName),
			DefinitionName: definitionName,
			Configuration:  cfg,
		}
		st.Nodes = append(st.Nodes, node.Clone())
		st.Edges = graph.ComposeFromNodes(st.Nodes)
		st.PipelineRecipeIsDirty = true
	})
	b.logger.Debug("node added", "node_id", node.ID, "definition", definitionName)
	b.RefreshHints(ctx)
	return node, nil
}

// setPath writes value at a dotted path, creating intermediate objects.
func setPath(cfg map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	m := cfg
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// reconcilerFor returns the node's reconciler, creating it on first use, with
// the node's current definition schema.
func (b *Builder) reconcilerFor(ctx context.Context, nodeID string) (*reconciler.Reconciler, error) {
	node, ok := b.store.Node(nodeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	s := b.catalog.Schema(ctx, node.DefinitionName)

	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.reconcilers[nodeID]
	if !ok {
		opts := []reconciler.Option{
			reconciler.WithLogger(b.logger),
			reconciler.WithHooks(b.hooks),
			reconciler.WithDebounce(b.debounce),
			reconciler.WithOutcomeHandler(b.handleOutcome),
		}
		if b.clock != nil {
			opts = append(opts, reconciler.WithClock(b.clock))
		}
		r = reconciler.New(nodeID, b.store, s, opts...)
		b.reconcilers[nodeID] = r
		return r, nil
	}
	r.SetSchema(s)
	return r, nil
}

func (b *Builder) handleOutcome(o reconciler.Outcome) {
	if o.Status == reconciler.StatusCommitted {
		b.RefreshHints(context.Background())
	}
	if b.onResult != nil {
		b.onResult(o)
	}
}

// dropReconciler cancels and forgets the reconciler of nodeID.
// flushReconciler applies a pending edit of nodeID now, if any.
func (b *Builder) flushReconciler(nodeID string) {
	b.mu.Lock()
	r, ok := b.reconcilers[nodeID]
	b.mu.Unlock()
	if ok {
		r.Flush()
	}
}

func (b *Builder) dropReconciler(nodeID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r, ok := b.reconcilers[nodeID]; ok {
		r.Cancel()
		delete(b.reconcilers, nodeID)
	}
}

// Edit submits new form values for a node. Validation and the store commit happen
// after the debounce window; only the last edit of a burst is applied.
func (b *Builder) Edit(ctx context.Context, nodeID string, values map[string]any) error {
	r, err := b.reconcilerFor(ctx, nodeID)
	if err != nil {
		return err
	}
	return r.Edit(values)
}

// Flush runs every pending edit now and returns the outcomes, sorted by node id.
func (b *Builder) Flush() []reconciler.Outcome {
	b.mu.Lock()
	rs := make([]*reconciler.Reconciler, 0, len(b.reconcilers))
	for _, r := range b.reconcilers {
		rs = append(rs, r)
	}
	b.mu.Unlock()

	var outcomes []reconciler.Outcome
	for _, r := range rs {
		if o, ok := r.Flush(); ok {
			outcomes = append(outcomes, o)
		}
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].NodeID < outcomes[j].NodeID })
	return outcomes
}

// Rename changes a node id and redirects every reference to it. A pending edit
// of the node is applied first, under the old id. On error the ids are unchanged.
func (b *Builder) Rename(ctx context.Context, oldID, newID string) error {
	if err := b.writable(); err != nil {
		return err
	}
	if oldID == domain.StartNodeID || oldID == domain.EndNodeID {
		return fmt.Errorf("%w: %s", ErrReservedNode, oldID)
	}
	b.flushReconciler(oldID)

	var err error
	b.store.Update(func(st *store.State) {
		var nodes []domain.PipelineNode
		var edges []domain.PipelineEdge
		nodes, edges, err = graph.Rename(st.Nodes, oldID, newID)
		if err != nil {
			return
		}
		st.Nodes, st.Edges = nodes, edges
		st.PipelineRecipeIsDirty = true
		if st.SelectedNodeID == oldID {
			st.SelectedNodeID = newID
		}
		if st.CurrentAdvancedConfigurationNodeID == oldID {
			st.CurrentAdvancedConfigurationNodeID = newID
		}
	})
	if err != nil {
		return err
	}

	b.dropReconciler(oldID)
	b.logger.Debug("node renamed", "from", oldID, "to", newID)
	b.RefreshHints(ctx)
	return nil
}

// Copy duplicates a node under a fresh id and returns the copy.
func (b *Builder) Copy(ctx context.Context, nodeID string) (domain.PipelineNode, error) {
	if err := b.writable(); err != nil {
		return domain.PipelineNode{}, err
	}
	if nodeID == domain.StartNodeID || nodeID == domain.EndNodeID {
		return domain.PipelineNode{}, fmt.Errorf("%w: %s", ErrReservedNode, nodeID)
	}

	var (
		copied domain.PipelineNode
		err    error
	)
	b.store.Update(func(st *store.State) {
		idx := domain.FindNode(st.Nodes, nodeID)
		if idx < 0 {
			err = fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
			return
		}
		var nodes []domain.PipelineNode
		nodes, copied, err = graph.Copy(st.Nodes, nodeID, graph.IDPrefix(st.Nodes[idx].DefinitionName))
		if err != nil {
			return
		}
		st.Nodes = nodes
		st.Edges = graph.ComposeFromNodes(nodes)
		st.PipelineRecipeIsDirty = true
	})
	if err != nil {
		return domain.PipelineNode{}, err
	}
	b.RefreshHints(ctx)
	return copied, nil
}

// Delete removes a node. References to it remain in other configurations.
func (b *Builder) Delete(ctx context.Context, nodeID string) error {
	if err := b.writable(); err != nil {
		return err
	}
	if nodeID == domain.StartNodeID || nodeID == domain.EndNodeID {
		return fmt.Errorf("%w: %s", ErrReservedNode, nodeID)
	}

	var err error
	b.store.Update(func(st *store.State) {
		var nodes []domain.PipelineNode
		var edges []domain.PipelineEdge
		nodes, edges, err = graph.Delete(st.Nodes, nodeID)
		if err != nil {
			return
		}
		st.Nodes, st.Edges = nodes, edges
		st.PipelineRecipeIsDirty = true
		if st.SelectedNodeID == nodeID {
			st.SelectedNodeID = ""
		}
		if st.CurrentAdvancedConfigurationNodeID == nodeID {
			st.CurrentAdvancedConfigurationNodeID = ""
		}
	})
	if err != nil {
		return err
	}
	b.dropReconciler(nodeID)
	b.RefreshHints(ctx)
	return nil
}

// BindResource attaches a connector to an external resource. Bindings never create edges.
func (b *Builder) BindResource(nodeID, resourceName string) error {
	if err := b.writable(); err != nil {
		return err
	}
	var err error
	b.store.Update(func(st *store.State) {
		idx := domain.FindNode(st.Nodes, nodeID)
		if idx < 0 {
			err = fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
			return
		}
		if st.Nodes[idx].ResourceName == resourceName {
			return
		}
		st.Nodes[idx].ResourceName = resourceName
		st.PipelineRecipeIsDirty = true
	})
	return err
}

// Select marks a node as selected.
func (b *Builder) Select(nodeID string) error {
	if _, ok := b.store.Node(nodeID); !ok && nodeID != "" {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	b.store.UpdateSelectedNodeID(func(string) string { return nodeID })
	return nil
}

// OpenAdvancedConfiguration points the advanced configuration panel at a node.
func (b *Builder) OpenAdvancedConfiguration(nodeID string) error {
	if _, ok := b.store.Node(nodeID); !ok && nodeID != "" {
		return fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	b.store.UpdateCurrentAdvancedConfigurationNodeID(func(string) string { return nodeID })
	return nil
}

// Form builds the renderable form of a node's current configuration.
// A read-only pipeline always yields a read-only form.
func (b *Builder) Form(ctx context.Context, nodeID string, mode form.Mode, opts ...form.Option) (form.Form, error) {
	node, ok := b.store.Node(nodeID)
	if !ok {
		return form.Form{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, nodeID)
	}
	if b.store.ReadOnly() {
		mode = form.ModeReadOnly
	}
	opts = append([]form.Option{form.WithMode(mode)}, opts...)
	return form.Build(b.catalog.Schema(ctx, node.DefinitionName), node.Configuration, opts...), nil
}

// HintQuery describes the text field a hint popover is attached to.
type HintQuery struct {
	// AcceptFormats is the field's instillAcceptFormats.
	AcceptFormats []string
	Value         string
	// Cursor and Trigger are rune offsets; Trigger is the position of the '{' that armed the popover.
	Cursor  *int
	Trigger *int
}

// Hints lists the smart hints offered to a field of nodeID.
func (b *Builder) Hints(nodeID string, q HintQuery) []domain.SmartHint {
	snap := b.store.Snapshot()
	order := graph.Positions(snap.Nodes, snap.Edges)
	return hint.Filter(snap.SmartHints, q.AcceptFormats, q.Cursor, q.Trigger, q.Value, nodeID, order)
}

// HintSession starts a hint popover session for the field at fieldPath of nodeID.
func (b *Builder) HintSession(ctx context.Context, nodeID, fieldPath string) (*hint.Session, error) {
	f, err := b.Form(ctx, nodeID, form.ModeEditable)
	if err != nil {
		return nil, err
	}
	var target *schema.Field
	for _, field := range schema.Flatten(f.Fields) {
		if field.Path == fieldPath {
			target = &field
			break
		}
	}
	if target == nil && !f.FreeForm {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, fieldPath)
	}

	snap := b.store.Snapshot()
	order := graph.Positions(snap.Nodes, snap.Edges)
	var accept []string
	var upstream []domain.UpstreamType
	if target != nil {
		accept, upstream = target.AcceptFormats, target.UpstreamTypes
	}
	return hint.NewSession(snap.SmartHints, accept, upstream, nodeID, order), nil
}

// RefreshHints rebuilds the hint set from the start operator's fields and the
// output schema of every component.
func (b *Builder) RefreshHints(ctx context.Context) {
	nodes := b.store.Nodes()
	outputs := make(map[string]*schema.Schema, len(nodes))
	for _, n := range nodes {
		if n.ID == domain.StartNodeID || n.ID == domain.EndNodeID {
			continue
		}
		if e := b.catalog.Entry(ctx, n.DefinitionName); e != nil {
			if out := e.Output(n.Task()); out != nil {
				outputs[n.ID] = out
			}
		}
	}
	hints := hint.FromNodes(nodes, outputs)
	b.store.UpdateSmartHints(func([]domain.SmartHint) []domain.SmartHint { return hints })
}

// Validate checks every node against its definition and returns the errors per node id.
// Nodes without a definition schema are not checked.
func (b *Builder) Validate(ctx context.Context) map[string][]*schema.ValidationError {
	out := map[string][]*schema.ValidationError{}
	for _, n := range b.store.Nodes() {
		s := b.catalog.Schema(ctx, n.DefinitionName)
		if s == nil {
			continue
		}
		v, _ := schema.Transform(s, schema.ConditionsFromConfiguration(s, n.Configuration))
		if res := v.SafeParse(n.Configuration); !res.Success {
			out[n.ID] = res.Errors
		}
	}
	return out
}

// Recipe serializes the current pipeline. Pending edits are not included; call Flush first.
func (b *Builder) Recipe() *domain.Recipe {
	r := domain.NewRecipe(b.store.Nodes())
	b.mu.Lock()
	if b.uid != "" {
		r.UID = b.uid
	}
	b.mu.Unlock()
	return r
}

// LoadRecipe replaces the pipeline with the recipe's components. Pending edits are dropped.
func (b *Builder) LoadRecipe(ctx context.Context, r *domain.Recipe) error {
	if r == nil {
		return domain.ErrInvalidRecipe
	}
	return b.install(ctx, r)
}

func (b *Builder) install(ctx context.Context, r *domain.Recipe) error {
	nodes := r.Nodes()
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if err := domain.ValidateID(n.ID); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidRecipe, err)
		}
		if seen[n.ID] {
			return fmt.Errorf("%w: %w", domain.ErrInvalidRecipe, &domain.IdentifierCollisionError{ID: n.ID})
		}
		seen[n.ID] = true
	}

	b.mu.Lock()
	for id, rec := range b.reconcilers {
		rec.Cancel()
		delete(b.reconcilers, id)
	}
	b.uid = r.UID
	b.mu.Unlock()

	b.store.Update(func(st *store.State) {
		st.Nodes = nodes
		st.Edges = graph.ComposeFromNodes(nodes)
		st.PipelineRecipeIsDirty = false
		st.SelectedNodeID = ""
		st.CurrentAdvancedConfigurationNodeID = ""
	})
	b.RefreshHints(ctx)
	return nil
}

// Load replaces the pipeline with the stored recipe.
func (b *Builder) Load(ctx context.Context) error {
	if b.recipes == nil {
		return ErrNoRecipeStore
	}
	r, err := b.recipes.Load(ctx, b.pipelineID)
	if err != nil {
		return err
	}
	return b.install(ctx, r)
}

// Save flushes pending edits and persists the recipe. The dirty flag is cleared on success.
func (b *Builder) Save(ctx context.Context) error {
	if b.recipes == nil {
		return ErrNoRecipeStore
	}
	b.Flush()
	r := b.Recipe()
	if err := b.recipes.Save(ctx, b.pipelineID, r); err != nil {
		return fmt.Errorf("failed to save pipeline %s: %w", b.pipelineID, err)
	}
	b.mu.Lock()
	b.uid = r.UID
	b.mu.Unlock()
	b.store.UpdatePipelineRecipeIsDirty(func(bool) bool { return false })
	b.logger.Info("pipeline saved", "components", len(r.Components))
	return nil
}

// Close drops every pending edit.
func (b *Builder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, r := range b.reconcilers {
		r.Cancel()
		delete(b.reconcilers, id)
	}
}
