package http

import (
	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/schema"
)

// ValidateRequest is the body of POST /validate.
type ValidateRequest struct {
	DefinitionName string         `json:"definition_name"`
	Configuration  map[string]any `json:"configuration"`
}

// ValidationIssue is one failed check, addressed by dotted path.
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidateResponse is the result of POST /validate.
type ValidateResponse struct {
	Valid bool `json:"valid"`
	// FreeForm is set when the definition is unknown and nothing was checked.
	FreeForm bool              `json:"free_form,omitempty"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
}

// ComponentsRequest carries a set of recipe components.
type ComponentsRequest struct {
	Components []domain.RecipeComponent `json:"components"`
}

// ReferencesResponse is the result of POST /references.
type ReferencesResponse struct {
	References []domain.ComponentReference `json:"references"`
	Edges      []domain.PipelineEdge       `json:"edges"`
}

// HintsRequest is the body of POST /hints.
type HintsRequest struct {
	Components    []domain.RecipeComponent `json:"components"`
	NodeID        string                   `json:"node_id"`
	AcceptFormats []string                 `json:"accept_formats,omitempty"`
	Value         string                   `json:"value,omitempty"`
	Cursor        *int                     `json:"cursor,omitempty"`
	Trigger       *int                     `json:"trigger,omitempty"`
}

// HintsResponse is the result of POST /hints.
type HintsResponse struct {
	Hints []domain.SmartHint `json:"hints"`
}

// PipelineList is the result of GET /pipelines.
type PipelineList struct {
	Pipelines []string `json:"pipelines"`
}

// ConfigurationRequest is the body of POST /pipelines/{id}/nodes/{nodeID}/configuration.
type ConfigurationRequest struct {
	Configuration map[string]any `json:"configuration"`
}

// ConfigurationResponse reports the outcome of a configuration edit.
type ConfigurationResponse struct {
	Status string            `json:"status"`
	Errors []ValidationIssue `json:"errors,omitempty"`
	Graph  *domain.Graph     `json:"graph,omitempty"`
}

// RenameRequest is the body of POST /pipelines/{id}/nodes/{nodeID}/rename.
type RenameRequest struct {
	NewID string `json:"new_id"`
}

// GraphFormat selects the rendering of GET /pipelines/{id}/graph.
type GraphFormat string

const (
	GraphFormatJSON    GraphFormat = "json"
	GraphFormatMermaid GraphFormat = "mermaid"
	GraphFormatDOT     GraphFormat = "dot"
)

// GetGraphParams are the query parameters of GET /pipelines/{id}/graph.
type GetGraphParams struct {
	Format *GraphFormat `form:"format,omitempty" json:"format,omitempty"`
}

// SubscribeEventsParams are the query parameters of GET /pipelines/{id}/events.
type SubscribeEventsParams struct {
	// Watch is a comma separated list of diff sections: nodes, edges.
	Watch *string `form:"watch,omitempty" json:"watch,omitempty"`
}

func issues(errs []*schema.ValidationError) []ValidationIssue {
	if len(errs) == 0 {
		return nil
	}
	out := make([]ValidationIssue, 0, len(errs))
	for _, e := range errs {
		out = append(out, ValidationIssue{Path: e.Path, Message: e.Message})
	}
	return out
}
