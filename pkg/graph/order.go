package graph

import "github.com/aretw0/pipebuilder/pkg/domain"

// Order returns node ids in topological order (Kahn's algorithm), ties broken by
// declaration order. Nodes caught in a cycle are appended in declaration order.
func Order(nodes []domain.PipelineNode, edges []domain.PipelineEdge) []string {
	position := make(map[string]int, len(nodes))
	for i, n := range nodes {
		position[n.ID] = i
	}

	indegree := make(map[string]int, len(nodes))
	next := make(map[string][]string, len(nodes))
	for _, e := range edges {
		if _, ok := position[e.Source]; !ok {
			continue
		}
		if _, ok := position[e.Target]; !ok {
			continue
		}
		indegree[e.Target]++
		next[e.Source] = append(next[e.Source], e.Target)
	}

	done := make(map[string]bool, len(nodes))
	order := make([]string, 0, len(nodes))
	for len(order) < len(nodes) {
		var level []string
		for _, n := range nodes {
			if !done[n.ID] && indegree[n.ID] == 0 {
				level = append(level, n.ID)
			}
		}
		if len(level) == 0 {
			// cycle: release the remaining nodes as they were declared
			for _, n := range nodes {
				if !done[n.ID] {
					order = append(order, n.ID)
					done[n.ID] = true
				}
			}
			break
		}
		for _, id := range level {
			done[id] = true
			order = append(order, id)
			for _, t := range next[id] {
				indegree[t]--
			}
		}
	}
	return order
}

// Positions maps each node id to its index in Order.
func Positions(nodes []domain.PipelineNode, edges []domain.PipelineEdge) map[string]int {
	order := Order(nodes, edges)
	out := make(map[string]int, len(order))
	for i, id := range order {
		out[id] = i
	}
	return out
}
