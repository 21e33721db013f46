package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aretw0/pipebuilder/internal/logging"
	"github.com/aretw0/pipebuilder/pkg/ports"
	"github.com/aretw0/pipebuilder/pkg/schema"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrSuperseded is returned by Refresh when a newer Refresh started before it finished.
// Its results are discarded.
var ErrSuperseded = errors.New("catalog refresh superseded")

const (
	keyComponentSpec = "component_specification"
	keyDataSpecs     = "data_specifications"
	keyOutput        = "output"
)

// Entry is a decoded definition.
type Entry struct {
	Name string
	// Component validates a node's configuration.
	Component *schema.Schema
	// Outputs holds the output schema of each task, keyed by task name.
	Outputs map[string]*schema.Schema
}

// Output returns the output schema for task. A definition with a single output
// schema returns it regardless of task.
func (e *Entry) Output(task string) *schema.Schema {
	if e == nil {
		return nil
	}
	if s, ok := e.Outputs[task]; ok {
		return s
	}
	if len(e.Outputs) == 1 {
		for _, s := range e.Outputs {
			return s
		}
	}
	return nil
}

// Catalog caches definitions fetched from a source.
type Catalog struct {
	source ports.DefinitionSource
	logger *slog.Logger
	limit  int

	mu         sync.RWMutex
	entries    map[string]*Entry
	revisions  map[string]uint64
	generation atomic.Uint64
	flights    singleflight.Group
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the catalog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// WithConcurrency bounds parallel fetches during Refresh.
func WithConcurrency(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.limit = n
		}
	}
}

// New creates a Catalog over source.
func New(source ports.DefinitionSource, opts ...Option) *Catalog {
	c := &Catalog{
		source:  source,
		logger:  logging.NewNop(),
		limit:   8,
		entries:   make(map[string]*Entry),
		revisions: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generation counts how many times the cache was reset.
func (c *Catalog) Generation() uint64 {
	return c.generation.Load()
}

// Schema returns the component schema of the named definition, or nil when no
// schema is available.
func (c *Catalog) Schema(ctx context.Context, name string) *schema.Schema {
	e := c.Entry(ctx, name)
	if e == nil {
		return nil
	}
	return e.Component
}

// Entry returns the decoded definition, or nil when it cannot be fetched or decoded.
// Failures are logged, never returned.
func (c *Catalog) Entry(ctx context.Context, name string) *Entry {
	if name == "" {
		return nil
	}
	c.mu.RLock()
	e, ok := c.entries[name]
	rev := c.revisions[name]
	c.mu.RUnlock()
	if ok {
		return e
	}

	gen := c.generation.Load()
	v, err, _ := c.flights.Do(fmt.Sprintf("%d/%d/%s", gen, rev, name), func() (any, error) {
		return c.fetch(ctx, name)
	})
	if err != nil {
		c.logger.Warn("definition unavailable", "definition", name, "err", err)
		return nil
	}
	e = v.(*Entry)

	c.mu.Lock()
	if c.generation.Load() == gen && c.revisions[name] == rev {
		c.entries[name] = e
	}
	c.mu.Unlock()
	return e
}

func (c *Catalog) fetch(ctx context.Context, name string) (*Entry, error) {
	doc, err := c.source.GetDefinition(ctx, name)
	if err != nil {
		return nil, err
	}
	return Decode(name, doc)
}

// Decode turns a definition document into an Entry.
func Decode(name string, doc map[string]any) (*Entry, error) {
	e := &Entry{Name: name, Outputs: map[string]*schema.Schema{}}

	spec := doc
	if cs, ok := doc[keyComponentSpec].(map[string]any); ok {
		spec = cs
	}
	component, err := schema.FromMap(spec)
	if err != nil {
		return nil, fmt.Errorf("definition %s: %w", name, err)
	}
	e.Component = component

	dataSpecs, _ := doc[keyDataSpecs].(map[string]any)
	for task, raw := range dataSpecs {
		ds, _ := raw.(map[string]any)
		out, _ := ds[keyOutput].(map[string]any)
		if out == nil {
			continue
		}
		s, err := schema.FromMap(out)
		if err != nil {
			return nil, fmt.Errorf("definition %s: output of %s: %w", name, task, err)
		}
		e.Outputs[task] = s
	}
	return e, nil
}

// Names lists the definitions the source offers.
func (c *Catalog) Names(ctx context.Context) ([]string, error) {
	return c.source.ListDefinitions(ctx)
}

// Invalidate drops a cached definition. Fetches of name already in flight are
// not cached when they complete.
func (c *Catalog) Invalidate(name string) {
	c.mu.Lock()
	delete(c.entries, name)
	c.revisions[name]++
	c.mu.Unlock()
}

// Refresh resets the cache and prefetches every definition of the source.
// Definitions that fail to load are logged and left out. When another Refresh
// starts before this one finishes, this one returns ErrSuperseded and its results
// are dropped.
func (c *Catalog) Refresh(ctx context.Context) error {
	gen := c.generation.Add(1)
	c.mu.Lock()
	c.entries = make(map[string]*Entry)
	revs := make(map[string]uint64, len(c.revisions))
	for name, rev := range c.revisions {
		revs[name] = rev
	}
	c.mu.Unlock()

	names, err := c.source.ListDefinitions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list definitions: %w", err)
	}

	var (
		mu      sync.Mutex
		fetched = make(map[string]*Entry, len(names))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	for _, name := range names {
		g.Go(func() error {
			e, err := c.fetch(gctx, name)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.logger.Warn("definition unavailable", "definition", name, "err", err)
				return nil
			}
			mu.Lock()
			fetched[name] = e
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation.Load() != gen {
		c.logger.Debug("discarding stale catalog refresh", "generation", gen)
		return ErrSuperseded
	}
	for name, e := range fetched {
		if c.revisions[name] != revs[name] {
			continue
		}
		c.entries[name] = e
	}
	c.logger.Info("catalog refreshed", "definitions", len(fetched), "generation", gen)
	return nil
}

// Watch drops each definition w reports as changed, until ctx is done. The next
// lookup fetches it again.
func (c *Catalog) Watch(ctx context.Context, w ports.Watchable) error {
	ch, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch definitions: %w", err)
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case name, ok := <-ch:
				if !ok {
					return
				}
				c.logger.Debug("definition changed", "definition", name)
				c.Invalidate(name)
			}
		}
	}()
	return nil
}
