// Package store holds the shared pipeline builder state.
//
// Every mutation replaces a whole collection through an updater function. Readers
// always receive deep copies, so no caller can observe or cause a partial update.
package store

import (
	"log/slog"
	"sync"

	"github.com/aretw0/pipebuilder/internal/logging"
	"github.com/aretw0/pipebuilder/pkg/domain"
)

// State is a snapshot of the builder.
type State struct {
	Nodes                              []domain.PipelineNode `json:"nodes"`
	Edges                              []domain.PipelineEdge `json:"edges"`
	PipelineRecipeIsDirty              bool                  `json:"pipeline_recipe_is_dirty"`
	CurrentAdvancedConfigurationNodeID string                `json:"current_advanced_configuration_node_id,omitempty"`
	SelectedNodeID                     string                `json:"selected_node_id,omitempty"`
	SmartHints                         []domain.SmartHint    `json:"smart_hints,omitempty"`
	ReadOnly                           bool                  `json:"read_only"`
}

// Clone returns a deep copy of the snapshot.
func (s State) Clone() State {
	c := s
	c.Nodes = domain.CloneNodes(s.Nodes)
	if s.Edges != nil {
		c.Edges = append([]domain.PipelineEdge(nil), s.Edges...)
	}
	if s.SmartHints != nil {
		c.SmartHints = make([]domain.SmartHint, len(s.SmartHints))
		for i, h := range s.SmartHints {
			h.AvailableUpstreamTypes = append([]domain.UpstreamType(nil), h.AvailableUpstreamTypes...)
			c.SmartHints[i] = h
		}
	}
	return c
}

// Graph returns the node and edge part of the snapshot.
func (s State) Graph() *domain.Graph {
	return &domain.Graph{Nodes: s.Nodes, Edges: s.Edges}
}

// Listener receives a snapshot after every mutation.
type Listener func(State)

// Store is the single owner of the builder state.
// Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state State

	subsMu  sync.Mutex
	subs    map[int]Listener
	nextSub int

	notifyMu sync.Mutex
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithState seeds the store.
func WithState(state State) Option {
	return func(s *Store) {
		s.state = state.Clone()
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		subs:   make(map[int]Listener),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Nodes returns a deep copy of the nodes.
func (s *Store) Nodes() []domain.PipelineNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneNodes(s.state.Nodes)
}

// Node returns a copy of one node.
func (s *Store) Node(id string) (domain.PipelineNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := domain.FindNode(s.state.Nodes, id)
	if i < 0 {
		return domain.PipelineNode{}, false
	}
	return s.state.Nodes[i].Clone(), true
}

// Edges returns a copy of the edges.
func (s *Store) Edges() []domain.PipelineEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.PipelineEdge(nil), s.state.Edges...)
}

// ReadOnly reports whether the pipeline is opened read-only.
func (s *Store) ReadOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ReadOnly
}

// Update applies fn to a private copy of the state and installs the result atomically.
func (s *Store) Update(fn func(*State)) {
	s.mu.Lock()
	next := s.state.Clone()
	fn(&next)
	s.state = next.Clone()
	snapshot := s.state.Clone()
	s.mu.Unlock()

	s.notify(snapshot)
}

// UpdateNodes replaces the node collection with the updater's result.
func (s *Store) UpdateNodes(fn func(prev []domain.PipelineNode) []domain.PipelineNode) {
	s.Update(func(st *State) { st.Nodes = fn(st.Nodes) })
}

// UpdateEdges replaces the edge collection with the updater's result.
func (s *Store) UpdateEdges(fn func(prev []domain.PipelineEdge) []domain.PipelineEdge) {
	s.Update(func(st *State) { st.Edges = fn(st.Edges) })
}

// UpdatePipelineRecipeIsDirty sets the unsaved-changes flag.
func (s *Store) UpdatePipelineRecipeIsDirty(fn func(prev bool) bool) {
	s.Update(func(st *State) { st.PipelineRecipeIsDirty = fn(st.PipelineRecipeIsDirty) })
}

// UpdateCurrentAdvancedConfigurationNodeID sets the node whose advanced configuration is open.
func (s *Store) UpdateCurrentAdvancedConfigurationNodeID(fn func(prev string) string) {
	s.Update(func(st *State) { st.CurrentAdvancedConfigurationNodeID = fn(st.CurrentAdvancedConfigurationNodeID) })
}

// UpdateSelectedNodeID sets the selected node.
func (s *Store) UpdateSelectedNodeID(fn func(prev string) string) {
	s.Update(func(st *State) { st.SelectedNodeID = fn(st.SelectedNodeID) })
}

// UpdateSmartHints replaces the hint set.
func (s *Store) UpdateSmartHints(fn func(prev []domain.SmartHint) []domain.SmartHint) {
	s.Update(func(st *State) { st.SmartHints = fn(st.SmartHints) })
}

// UpdateReadOnly toggles read-only mode.
func (s *Store) UpdateReadOnly(fn func(prev bool) bool) {
	s.Update(func(st *State) { st.ReadOnly = fn(st.ReadOnly) })
}

// Subscribe registers l for snapshots delivered after each mutation, outside the state lock.
// The returned function unregisters it.
func (s *Store) Subscribe(l Listener) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = l

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(snapshot State) {
	s.subsMu.Lock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, l := range s.subs {
		listeners = append(listeners, l)
	}
	s.subsMu.Unlock()

	if len(listeners) == 0 {
		return
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.logger.Debug("store: notifying listeners", "count", len(listeners), "nodes", len(snapshot.Nodes))
	for _, l := range listeners {
		l(snapshot.Clone())
	}
}
