package catalog

import (
	"context"
	"sort"

	"github.com/aretw0/pipebuilder/pkg/sdk"
)

// ClientSource serves definitions from the backend API.
type ClientSource struct {
	client *sdk.Client
}

// NewClientSource adapts an sdk client into a ports.DefinitionSource.
func NewClientSource(client *sdk.Client) *ClientSource {
	return &ClientSource{client: client}
}

// GetDefinition fetches the full definition document.
func (s *ClientSource) GetDefinition(ctx context.Context, name string) (map[string]any, error) {
	def, err := s.client.GetDefinition(ctx, name)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		keyComponentSpec: def.Spec.ComponentSpecification,
		keyDataSpecs:     def.Spec.DataSpecifications,
	}, nil
}

// ListDefinitions returns connector and operator definition names.
func (s *ClientSource) ListDefinitions(ctx context.Context) ([]string, error) {
	connectors, err := s.client.ListConnectorDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	operators, err := s.client.ListOperatorDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(connectors)+len(operators))
	for _, d := range connectors {
		if !d.Tombstone {
			names = append(names, d.Name)
		}
	}
	for _, d := range operators {
		if !d.Tombstone {
			names = append(names, d.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}
