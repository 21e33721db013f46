/*
Package pipebuilder is a headless engine for visual data-pipeline builders.

A pipeline is a set of components (connectors doing I/O, operators doing pure
transformations) whose configurations reference each other's outputs with
"{ node.output.key }" expressions. The engine keeps that graph consistent while
a user edits it: it compiles component definition schemas into validators and
form descriptions, extracts references into edges, offers smart hints for
upstream values, and commits debounced edits into one shared store.

# Concept

The Builder owns a single pipeline. Every edit goes through a per-node
reconciler: values are validated against the component's definition after a
short debounce window, merged into the node configuration, and the edge set is
recomputed in the same store transaction. Only the last edit of a burst is
applied.

Definitions come from a ports.DefinitionSource: a Loam directory by default,
the backend API through catalog.ClientSource, or memory for tests.

# Usage

	b, err := pipebuilder.New("./definitions")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	node, _ := b.AddNode(ctx, "connector-definitions/ai-openai")
	_ = b.Edit(ctx, node.ID, map[string]any{
		"task":  "TASK_TEXT_GENERATION",
		"input": map[string]any{"prompt": "{ start.text }"},
	})
	b.Flush()

	fmt.Println(b.Graph().Edges) // start -> ai_openai_0

# Adapters

  - pkg/adapters/http: REST API with an SSE stream of graph diffs.
  - pkg/adapters/mcp: Model Context Protocol tools for agents.
  - pkg/adapters/redis, pkg/adapters/memory: recipe stores and locks.
  - pkg/adapters/loam: definition directories.
*/
package pipebuilder
