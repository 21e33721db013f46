package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/pipebuilder"
	"github.com/aretw0/pipebuilder/internal/logging"
	render "github.com/aretw0/pipebuilder/internal/presentation/graph"
	"github.com/aretw0/pipebuilder/pkg/catalog"
	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/graph"
	"github.com/aretw0/pipebuilder/pkg/reference"
	"github.com/aretw0/pipebuilder/pkg/schema"
	"github.com/aretw0/pipebuilder/pkg/session"
)

const definitionsURI = "pipebuilder://definitions"

// ValidationResult is the structured output of validate_configuration.
type ValidationResult struct {
	Valid    bool              `json:"valid" jsonschema_description:"Whether the configuration satisfies its definition"`
	FreeForm bool              `json:"free_form,omitempty" jsonschema_description:"Set when the definition is unknown and nothing was checked"`
	Errors   []ValidationIssue `json:"errors,omitempty" jsonschema_description:"Failed checks addressed by dotted path"`
}

// ValidationIssue is one failed check.
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ReferencesResult is the structured output of extract_references.
type ReferencesResult struct {
	References []domain.ComponentReference `json:"references" jsonschema_description:"Every reference and template found in the configurations"`
	Edges      []domain.PipelineEdge       `json:"edges" jsonschema_description:"Edges derived from single-brace references"`
}

// GraphResult is the structured output of compose_graph.
type GraphResult struct {
	Graph   *domain.Graph `json:"graph" jsonschema_description:"Nodes and derived edges"`
	Mermaid string        `json:"mermaid" jsonschema_description:"Mermaid flowchart of the graph"`
}

// HintsResult is the structured output of list_hints.
type HintsResult struct {
	Hints []domain.SmartHint `json:"hints" jsonschema_description:"Hints ordered by upstream position"`
}

// Server exposes the builder's stateless operations as MCP tools.
type Server struct {
	catalog   *catalog.Catalog
	sessions  *session.Manager
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithSessions enables the get_pipeline tool over stored pipelines.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(cat *catalog.Catalog, opts ...Option) *Server {
	s := &Server{
		catalog:   cat,
		mcpServer: server.NewMCPServer("pipebuilder-mcp", strings.TrimSpace(pipebuilder.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	validateTool := mcp.NewTool("validate_configuration",
		mcp.WithDescription("Validate a component configuration against its definition schema."),
		mcp.WithString("definition_name", mcp.Required(), mcp.Description("Definition name, e.g. connector-definitions/ai-openai")),
		mcp.WithString("configuration", mcp.Required(), mcp.Description("JSON object with the component configuration")),
		mcp.WithOutputSchema[ValidationResult](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	referencesTool := mcp.NewTool("extract_references",
		mcp.WithDescription("List the references and templates of a set of components and the edges they produce."),
		mcp.WithString("components", mcp.Required(), mcp.Description("JSON array of recipe components")),
		mcp.WithOutputSchema[ReferencesResult](),
	)
	s.mcpServer.AddTool(referencesTool, mcp.NewStructuredToolHandler(s.handleReferences))

	composeTool := mcp.NewTool("compose_graph",
		mcp.WithDescription("Compose the pipeline graph of a set of components."),
		mcp.WithString("components", mcp.Required(), mcp.Description("JSON array of recipe components")),
		mcp.WithOutputSchema[GraphResult](),
	)
	s.mcpServer.AddTool(composeTool, mcp.NewStructuredToolHandler(s.handleCompose))

	hintsTool := mcp.NewTool("list_hints",
		mcp.WithDescription("List the upstream fields a component field may reference."),
		mcp.WithString("components", mcp.Required(), mcp.Description("JSON array of recipe components")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Component owning the field")),
		mcp.WithString("accept_formats", mcp.Description("Comma separated instillAcceptFormats of the field")),
		mcp.WithString("query", mcp.Description("Text typed after the trigger brace")),
		mcp.WithOutputSchema[HintsResult](),
	)
	s.mcpServer.AddTool(hintsTool, mcp.NewStructuredToolHandler(s.handleHints))

	s.mcpServer.AddTool(mcp.NewTool("list_definitions",
		mcp.WithDescription("List the names of the available component definitions."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		names, err := s.catalog.Names(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(names)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	if s.sessions != nil {
		s.mcpServer.AddTool(mcp.NewTool("get_pipeline",
			mcp.WithDescription("Get a stored pipeline recipe."),
			mcp.WithString("pipeline_id", mcp.Required(), mcp.Description("Pipeline id")),
		), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := request.RequireString("pipeline_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			recipe, err := s.sessions.Load(ctx, id)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
			}
			jsonBytes, _ := json.Marshal(recipe)
			return mcp.NewToolResultText(string(jsonBytes)), nil
		})
	}
}

func decodeComponents(args map[string]interface{}) (*domain.Recipe, error) {
	raw, _ := args["components"].(string)
	var components []domain.RecipeComponent
	if err := json.Unmarshal([]byte(raw), &components); err != nil {
		return nil, fmt.Errorf("components must be a JSON array: %w", err)
	}
	return &domain.Recipe{Version: domain.RecipeVersion, Components: components}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidationResult, error) {
	name, _ := args["definition_name"].(string)
	raw, _ := args["configuration"].(string)

	var configuration map[string]any
	if err := json.Unmarshal([]byte(raw), &configuration); err != nil {
		return ValidationResult{}, fmt.Errorf("configuration must be a JSON object: %w", err)
	}

	sch := s.catalog.Schema(ctx, name)
	if sch == nil {
		return ValidationResult{Valid: true, FreeForm: true}, nil
	}
	v, _ := schema.Transform(sch, schema.ConditionsFromConfiguration(sch, configuration))
	res := v.SafeParse(configuration)

	out := ValidationResult{Valid: res.Success}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, ValidationIssue{Path: e.Path, Message: e.Message})
	}
	return out, nil
}

func (s *Server) handleReferences(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ReferencesResult, error) {
	recipe, err := decodeComponents(args)
	if err != nil {
		return ReferencesResult{}, err
	}
	nodes := recipe.Nodes()
	return ReferencesResult{
		References: reference.ExtractNodes(nodes),
		Edges:      graph.ComposeFromNodes(nodes),
	}, nil
}

func (s *Server) handleCompose(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (GraphResult, error) {
	recipe, err := decodeComponents(args)
	if err != nil {
		return GraphResult{}, err
	}
	nodes := recipe.Nodes()
	g := &domain.Graph{Nodes: nodes, Edges: graph.ComposeFromNodes(nodes)}
	return GraphResult{Graph: g, Mermaid: render.GenerateMermaid(g, nil)}, nil
}

func (s *Server) handleHints(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (HintsResult, error) {
	recipe, err := decodeComponents(args)
	if err != nil {
		return HintsResult{}, err
	}
	nodeID, _ := args["node_id"].(string)

	b, err := pipebuilder.New("", pipebuilder.WithCatalog(s.catalog), pipebuilder.WithLogger(s.logger))
	if err != nil {
		return HintsResult{}, err
	}
	defer b.Close()
	if err := b.LoadRecipe(ctx, recipe); err != nil {
		return HintsResult{}, err
	}

	q := pipebuilder.HintQuery{}
	if formats, _ := args["accept_formats"].(string); formats != "" {
		for _, f := range strings.Split(formats, ",") {
			q.AcceptFormats = append(q.AcceptFormats, strings.TrimSpace(f))
		}
	}
	if query, _ := args["query"].(string); query != "" {
		q.Value = "{" + query
		trigger, cursor := 0, len([]rune(q.Value))
		q.Trigger, q.Cursor = &trigger, &cursor
	}
	return HintsResult{Hints: b.Hints(nodeID, q)}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(definitionsURI, "Component Definitions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names, err := s.catalog.Names(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list definitions: %w", err)
		}
		jsonBytes, _ := json.Marshal(names)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      definitionsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
