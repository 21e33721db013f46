package hint

import (
	"sort"

	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/reference"
	"github.com/aretw0/pipebuilder/pkg/schema"
)

var defaultUpstreamTypes = []domain.UpstreamType{domain.UpstreamReference, domain.UpstreamTemplate}

// FromNodes builds the hint set of a pipeline.
//
// Fields declared in the start operator's metadata become "start.<key>".
// Every other node contributes "<id>.output.<key>" for each property of its
// output schema, looked up in outputs by node id. Nodes without an output
// schema contribute nothing.
func FromNodes(nodes []domain.PipelineNode, outputs map[string]*schema.Schema) []domain.SmartHint {
	var hints []domain.SmartHint
	for _, n := range nodes {
		if n.ID == domain.StartNodeID {
			hints = append(hints, startHints(n)...)
			continue
		}
		if out := outputs[n.ID]; out != nil {
			hints = append(hints, outputHints(n.ID, reference.Join(n.ID, "output"), out)...)
		}
	}
	return hints
}

func startHints(n domain.PipelineNode) []domain.SmartHint {
	metadata, _ := n.Configuration[domain.KeyMetadata].(map[string]any)
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	hints := make([]domain.SmartHint, 0, len(keys))
	for _, k := range keys {
		field, _ := metadata[k].(map[string]any)
		format, _ := field["instillFormat"].(string)
		typ, _ := field["type"].(string)
		hints = append(hints, domain.SmartHint{
			ComponentID:            n.ID,
			Path:                   reference.Join(n.ID, k),
			Key:                    k,
			InstillFormat:          format,
			Type:                   typ,
			AvailableUpstreamTypes: defaultUpstreamTypes,
		})
	}
	return hints
}

func outputHints(componentID, path string, s *schema.Schema) []domain.SmartHint {
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var hints []domain.SmartHint
	for _, k := range keys {
		prop := s.Properties[k]
		if prop == nil {
			continue
		}
		p := reference.Join(path, k)
		if len(prop.Properties) > 0 {
			hints = append(hints, outputHints(componentID, p, prop)...)
			continue
		}
		hints = append(hints, domain.SmartHint{
			ComponentID:            componentID,
			Path:                   p,
			Key:                    k,
			InstillFormat:          prop.InstillFormat,
			Type:                   prop.Type,
			AvailableUpstreamTypes: defaultUpstreamTypes,
		})
	}
	return hints
}
