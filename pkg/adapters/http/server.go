package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"

	"github.com/aretw0/pipebuilder"
	"github.com/aretw0/pipebuilder/internal/logging"
	render "github.com/aretw0/pipebuilder/internal/presentation/graph"
	"github.com/aretw0/pipebuilder/pkg/catalog"
	"github.com/aretw0/pipebuilder/pkg/domain"
	"github.com/aretw0/pipebuilder/pkg/graph"
	"github.com/aretw0/pipebuilder/pkg/observability"
	"github.com/aretw0/pipebuilder/pkg/ports"
	"github.com/aretw0/pipebuilder/pkg/reconciler"
	"github.com/aretw0/pipebuilder/pkg/reference"
	"github.com/aretw0/pipebuilder/pkg/schema"
	"github.com/aretw0/pipebuilder/pkg/session"
)

// errNoChange aborts a session update without saving.
var errNoChange = errors.New("no change")

// Server serves the builder API over pipelines held by a session manager.
type Server struct {
	Sessions *session.Manager
	Catalog  *catalog.Catalog
	Streams  *StreamManager

	handler http.Handler
	metrics *observability.Metrics
	watcher ports.Watchable
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics records edit and request metrics and serves them at /metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithWatcher enables GET /events, a stream of changed definition names.
func WithWatcher(w ports.Watchable) Option {
	return func(s *Server) {
		s.watcher = w
	}
}

// NewHandler creates the HTTP handler. Requests to documented routes are
// validated against the embedded OpenAPI document.
func NewHandler(sessions *session.Manager, cat *catalog.Catalog, opts ...Option) (http.Handler, error) {
	server := &Server{
		Sessions: sessions,
		Catalog:  cat,
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.logger == nil {
		server.logger = logging.NewNop()
	}
	server.Streams = NewStreamManager(server.logger)
	server.hooks = observability.LoggingHooks(server.logger)
	if server.metrics != nil {
		server.hooks = observability.ChainHooks(server.hooks, server.metrics.Hooks())
	}

	validate, err := requestValidator(server.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if server.metrics != nil {
		r.Use(server.countRequests)
		r.Method(http.MethodGet, "/metrics", server.metrics.Handler())
	}

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			server.logger.Error("Failed to load OpenAPI spec", "err", err)
			return
		}
		w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/events", server.SubscribeDefinitions)

	r.Group(func(r chi.Router) {
		r.Use(validate)
		r.Post("/validate", server.Validate)
		r.Post("/references", server.ExtractReferences)
		r.Post("/hints", server.ListHints)
		r.Get("/pipelines", server.ListPipelines)
		r.Get("/pipelines/{id}", server.wrapPipeline(server.GetPipeline))
		r.Put("/pipelines/{id}", server.wrapPipeline(server.PutPipeline))
		r.Delete("/pipelines/{id}", server.wrapPipeline(server.DeletePipeline))
		r.Get("/pipelines/{id}/graph", server.wrapGetGraph)
		r.Get("/pipelines/{id}/events", server.wrapSubscribeEvents)
		r.Post("/pipelines/{id}/nodes/{nodeID}/configuration", server.wrapNode(server.UpdateConfiguration))
		r.Post("/pipelines/{id}/nodes/{nodeID}/rename", server.wrapNode(server.RenameNode))
	})

	server.handler = enableCORS(r)
	return server, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveRequest(route, strconv.Itoa(status))
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Pipebuilder API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// -- Parameter binding --

func bindPath(w http.ResponseWriter, r *http.Request, name string, dest *string) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter %s: %v", name, err), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) wrapPipeline(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id string
		if !bindPath(w, r, "id", &id) {
			return
		}
		h(w, r, id)
	}
}

func (s *Server) wrapNode(h func(http.ResponseWriter, *http.Request, string, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var id, nodeID string
		if !bindPath(w, r, "id", &id) || !bindPath(w, r, "nodeID", &nodeID) {
			return
		}
		h(w, r, id, nodeID)
	}
}

func (s *Server) wrapGetGraph(w http.ResponseWriter, r *http.Request) {
	var id string
	if !bindPath(w, r, "id", &id) {
		return
	}
	var params GetGraphParams
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &params.Format); err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter format: %v", err), http.StatusBadRequest)
		return
	}
	s.GetGraph(w, r, id, params)
}

func (s *Server) wrapSubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var id string
	if !bindPath(w, r, "id", &id) {
		return
	}
	var params SubscribeEventsParams
	if err := runtime.BindQueryParameter("form", true, false, "watch", r.URL.Query(), &params.Watch); err != nil {
		http.Error(w, fmt.Sprintf("Invalid format for parameter watch: %v", err), http.StatusBadRequest)
		return
	}
	s.SubscribeEvents(w, r, id, params)
}

// -- Helpers --

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	var collision *domain.IdentifierCollisionError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrPipelineNotFound), errors.Is(err, domain.ErrNodeNotFound):
		status = http.StatusNotFound
	case errors.As(err, &collision):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidID), errors.Is(err, domain.ErrInvalidRecipe), errors.Is(err, pipebuilder.ErrReservedNode):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	}
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), status)
}

// builder opens a short-lived builder over recipe. Edits stay pending until Flush.
func (s *Server) builder(ctx context.Context, recipe *domain.Recipe) (*pipebuilder.Builder, error) {
	b, err := pipebuilder.New("",
		pipebuilder.WithCatalog(s.Catalog),
		pipebuilder.WithLogger(s.logger),
		pipebuilder.WithLifecycleHooks(s.hooks),
		pipebuilder.WithDebounce(time.Hour),
	)
	if err != nil {
		return nil, err
	}
	if recipe != nil {
		if err := b.LoadRecipe(ctx, recipe); err != nil {
			b.Close()
			return nil, err
		}
	}
	return b, nil
}

func componentsRecipe(components []domain.RecipeComponent) *domain.Recipe {
	return &domain.Recipe{Version: domain.RecipeVersion, Components: components}
}

// broadcastDiff publishes the change between two graphs to the pipeline's subscribers.
func (s *Server) broadcastDiff(pipelineID string, before, after *domain.Graph) {
	diff := domain.Diff(pipelineID, before, after)
	if diff == nil {
		s.logger.Debug("no diff calculated", "pipeline_id", pipelineID)
		return
	}
	data, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("diff encode failed", "err", err)
		return
	}
	s.Streams.Broadcast(pipelineID, string(data))
}

// -- Stateless endpoints --

// Validate handles POST /validate.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	var body ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sch := s.Catalog.Schema(r.Context(), body.DefinitionName)
	if sch == nil {
		s.writeJSON(w, http.StatusOK, ValidateResponse{Valid: true, FreeForm: true})
		return
	}
	v, _ := schema.Transform(sch, schema.ConditionsFromConfiguration(sch, body.Configuration))
	res := v.SafeParse(body.Configuration)
	s.writeJSON(w, http.StatusOK, ValidateResponse{Valid: res.Success, Errors: issues(res.Errors)})
}

// ExtractReferences handles POST /references.
func (s *Server) ExtractReferences(w http.ResponseWriter, r *http.Request) {
	var body ComponentsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	nodes := componentsRecipe(body.Components).Nodes()
	resp := ReferencesResponse{
		References: reference.ExtractNodes(nodes),
		Edges:      graph.ComposeFromNodes(nodes),
	}
	if resp.References == nil {
		resp.References = []domain.ComponentReference{}
	}
	if resp.Edges == nil {
		resp.Edges = []domain.PipelineEdge{}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ListHints handles POST /hints.
func (s *Server) ListHints(w http.ResponseWriter, r *http.Request) {
	var body HintsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	b, err := s.builder(r.Context(), componentsRecipe(body.Components))
	if err != nil {
		s.writeError(w, "Hints", err)
		return
	}
	defer b.Close()

	hints := b.Hints(body.NodeID, pipebuilder.HintQuery{
		AcceptFormats: body.AcceptFormats,
		Value:         body.Value,
		Cursor:        body.Cursor,
		Trigger:       body.Trigger,
	})
	s.writeJSON(w, http.StatusOK, HintsResponse{Hints: hints})
}

// -- Pipelines --

// ListPipelines handles GET /pipelines.
func (s *Server) ListPipelines(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeError(w, "List", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, PipelineList{Pipelines: ids})
}

// GetPipeline handles GET /pipelines/{id}.
func (s *Server) GetPipeline(w http.ResponseWriter, r *http.Request, id string) {
	recipe, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, "Load", err)
		return
	}
	s.writeJSON(w, http.StatusOK, recipe)
}

// PutPipeline handles PUT /pipelines/{id}. Component ids are checked before anything is stored.
func (s *Server) PutPipeline(w http.ResponseWriter, r *http.Request, id string) {
	var body domain.Recipe
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	b, err := s.builder(r.Context(), &body)
	if err != nil {
		s.writeError(w, "Save", err)
		return
	}
	defer b.Close()
	recipe := b.Recipe()

	var before *domain.Graph
	err = s.Sessions.WithLock(r.Context(), id, func(ctx context.Context) error {
		if prev, err := s.Sessions.Store().Load(ctx, id); err == nil {
			before = graphOf(prev)
		} else if !errors.Is(err, domain.ErrPipelineNotFound) {
			return err
		}
		return s.Sessions.Store().Save(ctx, id, recipe)
	})
	if err != nil {
		s.writeError(w, "Save", err)
		return
	}
	s.broadcastDiff(id, before, b.Graph())
	s.writeJSON(w, http.StatusOK, recipe)
}

// DeletePipeline handles DELETE /pipelines/{id}.
func (s *Server) DeletePipeline(w http.ResponseWriter, r *http.Request, id string) {
	var before *domain.Graph
	err := s.Sessions.WithLock(r.Context(), id, func(ctx context.Context) error {
		if prev, err := s.Sessions.Store().Load(ctx, id); err == nil {
			before = graphOf(prev)
		}
		return s.Sessions.Store().Delete(ctx, id)
	})
	if err != nil {
		s.writeError(w, "Delete", err)
		return
	}
	if before != nil {
		s.broadcastDiff(id, before, &domain.Graph{})
	}
	w.WriteHeader(http.StatusNoContent)
}

func graphOf(r *domain.Recipe) *domain.Graph {
	nodes := r.Nodes()
	return &domain.Graph{Nodes: nodes, Edges: graph.ComposeFromNodes(nodes)}
}

// UpdateConfiguration handles POST /pipelines/{id}/nodes/{nodeID}/configuration.
// The configuration runs through the same edit cycle as an interactive edit:
// a rejected configuration leaves the stored pipeline untouched.
func (s *Server) UpdateConfiguration(w http.ResponseWriter, r *http.Request, id, nodeID string) {
	var body ConfigurationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var (
		outcome       reconciler.Outcome
		before, after *domain.Graph
	)
	_, err := s.Sessions.Update(r.Context(), id, func(recipe *domain.Recipe) error {
		b, err := s.builder(r.Context(), recipe)
		if err != nil {
			return err
		}
		defer b.Close()

		before = b.Graph()
		if err := b.Edit(r.Context(), nodeID, body.Configuration); err != nil {
			return err
		}
		outcomes := b.Flush()
		if len(outcomes) == 0 {
			outcome = reconciler.Outcome{NodeID: nodeID, Status: reconciler.StatusUnchanged}
			after = before
			return errNoChange
		}
		outcome = outcomes[0]
		after = b.Graph()
		if outcome.Status != reconciler.StatusCommitted {
			return errNoChange
		}
		*recipe = *b.Recipe()
		return nil
	})
	if err != nil && !errors.Is(err, errNoChange) {
		s.writeError(w, "Configuration", err)
		return
	}

	resp := ConfigurationResponse{Status: string(outcome.Status), Errors: issues(outcome.Errors), Graph: after}
	if outcome.Status == reconciler.StatusRejected {
		s.writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	if outcome.Status == reconciler.StatusCommitted {
		s.broadcastDiff(id, before, after)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// RenameNode handles POST /pipelines/{id}/nodes/{nodeID}/rename.
func (s *Server) RenameNode(w http.ResponseWriter, r *http.Request, id, nodeID string) {
	var body RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var before, after *domain.Graph
	_, err := s.Sessions.Update(r.Context(), id, func(recipe *domain.Recipe) error {
		b, err := s.builder(r.Context(), recipe)
		if err != nil {
			return err
		}
		defer b.Close()

		before = b.Graph()
		if err := b.Rename(r.Context(), nodeID, body.NewID); err != nil {
			return err
		}
		after = b.Graph()
		*recipe = *b.Recipe()
		return nil
	})
	if err != nil {
		s.writeError(w, "Rename", err)
		return
	}
	s.broadcastDiff(id, before, after)
	s.writeJSON(w, http.StatusOK, after)
}

// GetGraph handles GET /pipelines/{id}/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request, id string, params GetGraphParams) {
	recipe, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		s.writeError(w, "Graph", err)
		return
	}
	b, err := s.builder(r.Context(), recipe)
	if err != nil {
		s.writeError(w, "Graph", err)
		return
	}
	defer b.Close()

	g := b.Graph()
	format := GraphFormatJSON
	if params.Format != nil {
		format = *params.Format
	}
	if format == GraphFormatJSON {
		s.writeJSON(w, http.StatusOK, g)
		return
	}

	overlay := &render.GraphOverlay{}
	for nodeID := range b.Validate(r.Context()) {
		overlay.InvalidNodes = append(overlay.InvalidNodes, nodeID)
	}

	var out string
	switch format {
	case GraphFormatMermaid:
		out = render.GenerateMermaid(g, overlay)
	case GraphFormatDOT:
		out, err = render.GenerateDOT(g, overlay)
		if err != nil {
			s.writeError(w, "Graph", err)
			return
		}
	default:
		http.Error(w, fmt.Sprintf("unknown graph format %q", format), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(out))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "pipebuilder-http",
		"version":     strings.TrimSpace(pipebuilder.Version),
		"api_version": apiVersion,
	})
}
