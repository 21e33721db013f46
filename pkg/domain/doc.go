/*
Package domain contains the core models of the pipeline builder.

It defines the entities shared by every other package: pipeline nodes, the
edges derived between them, the references extracted from node configuration
and the smart hints offered to text fields. The package is kept pure and free
of I/O so that the schema, graph, hint and reconciler packages can depend on
it without pulling adapters along.

# Key Entities

  - PipelineNode: one component instance (connector or operator) and its configuration.
  - PipelineEdge: a derived source -> target relation. Never edited by hand.
  - ComponentReference: a `{ path }` or `{{ path }}` occurrence found in configuration.
  - SmartHint: an upstream output a text field may point at.
  - Recipe: the serialized pipeline sent to the backend on save.
*/
package domain
