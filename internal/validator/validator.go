package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/graph"
	"github.com/aretw0/pipebuilder/pkg/reference"
)

// ErrBrokenGraph is wrapped by Report.Err when references dangle or form a cycle.
var ErrBrokenGraph = errors.New("pipeline graph is broken")

// Report lists the structural problems of a pipeline.
type Report struct {
	// Dangling are references and templates addressing a component that does not exist.
	Dangling []domain.ComponentReference
	// Cycle holds the components caught in a reference cycle, in declaration order.
	Cycle []string
	// Unreachable are components that no path of edges connects to the start operator.
	Unreachable []string
}

// Err reports dangling references and cycles. Unreachable components are not errors.
func (r *Report) Err() error {
	var problems []string
	for _, ref := range r.Dangling {
		problems = append(problems, fmt.Sprintf("%s.%s references missing component '%s'", ref.OwnerNodeID, ref.Path, ref.TargetNodeID))
	}
	if len(r.Cycle) > 0 {
		problems = append(problems, fmt.Sprintf("reference cycle between %s", strings.Join(r.Cycle, ", ")))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: found %d errors:\n- %s", ErrBrokenGraph, len(problems), strings.Join(problems, "\n- "))
}

// ValidateGraph crawls the pipeline from startNodeID and checks its references.
func ValidateGraph(nodes []domain.PipelineNode, startNodeID string) *Report {
	report := &Report{}

	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}
	for _, ref := range reference.ExtractNodes(nodes) {
		if !known[ref.TargetNodeID] {
			report.Dangling = append(report.Dangling, ref)
		}
	}

	edges := graph.ComposeFromNodes(nodes)
	report.Cycle = cycle(nodes, edges)

	next := make(map[string][]string, len(nodes))
	for _, e := range edges {
		next[e.Source] = append(next[e.Source], e.Target)
	}

	visited := make(map[string]bool, len(nodes))
	var queue []string
	if known[startNodeID] {
		queue = append(queue, startNodeID)
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, target := range next[current] {
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}
	for _, n := range nodes {
		if !visited[n.ID] {
			report.Unreachable = append(report.Unreachable, n.ID)
		}
	}
	return report
}

// cycle returns the components Kahn's algorithm cannot release.
func cycle(nodes []domain.PipelineNode, edges []domain.PipelineEdge) []string {
	indegree := make(map[string]int, len(nodes))
	next := make(map[string][]string, len(nodes))
	for _, e := range edges {
		indegree[e.Target]++
		next[e.Source] = append(next[e.Source], e.Target)
	}

	var queue []string
	for _, n := range nodes {
		if indegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	released := make(map[string]bool, len(nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		released[id] = true
		for _, t := range next[id] {
			indegree[t]--
			if indegree[t] == 0 {
				queue = append(queue, t)
			}
		}
	}

	var stuck []string
	for _, n := range nodes {
		if !released[n.ID] {
			stuck = append(stuck, n.ID)
		}
	}
	return stuck
}
