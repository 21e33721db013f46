package sdk_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/pipebuilder/pkg/sdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newClient(t *testing.T, h http.HandlerFunc, opts ...sdk.Option) (*sdk.Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	base := []sdk.Option{sdk.WithAccessToken("secret"), sdk.WithRetry(3, time.Millisecond)}
	return sdk.New(srv.URL, append(base, opts...)...), &hits
}

func TestGetUserMe_SendsBearerToken(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"name": "users/alice", "id": "alice"}})
	})

	user, err := c.GetUserMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "users/alice", user.Name)
	assert.Equal(t, "alice", user.ID)
}

func TestMissingCredentials_NoNetwork(t *testing.T) {
	ctx := context.Background()

	t.Run("Access token", func(t *testing.T) {
		c, hits := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{})
		}, sdk.WithAccessToken(""))

		_, err := c.ListConnectorDefinitions(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, sdk.ErrMissingCredential))

		var mc *sdk.MissingCredentialError
		require.True(t, errors.As(err, &mc))
		assert.Equal(t, "access_token", mc.Field)

		_, err = c.GetUserMe(ctx)
		assert.ErrorIs(t, err, sdk.ErrMissingCredential)
		_, err = c.ListUserConnectors(ctx, "users/alice", "")
		assert.ErrorIs(t, err, sdk.ErrMissingCredential)

		assert.Equal(t, int32(0), hits.Load())
	})

	t.Run("Entity name", func(t *testing.T) {
		c, hits := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{})
		})

		_, err := c.ListUserConnectors(ctx, "", "all")
		var mc *sdk.MissingCredentialError
		require.ErrorAs(t, err, &mc)
		assert.Equal(t, "user_name", mc.Field)

		_, err = c.ListUserMemberships(ctx, "")
		assert.ErrorIs(t, err, sdk.ErrMissingCredential)
		_, err = c.UndeployModel(ctx, "")
		assert.ErrorIs(t, err, sdk.ErrMissingCredential)
		_, err = c.WatchConnector(ctx, "")
		assert.ErrorIs(t, err, sdk.ErrMissingCredential)

		assert.Equal(t, int32(0), hits.Load())
	})
}

func TestListUsers_WalksAllPages(t *testing.T) {
	c, hits := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("page_size"))
		switch r.URL.Query().Get("page_token") {
		case "":
			writeJSON(w, http.StatusOK, map[string]any{
				"users":           []any{map[string]any{"id": "a"}, map[string]any{"id": "b"}},
				"next_page_token": "p2",
			})
		case "p2":
			writeJSON(w, http.StatusOK, map[string]any{
				"users":           []any{map[string]any{"id": "c"}},
				"next_page_token": "",
			})
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("page_token"))
		}
	})

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "c", users[2].ID)
	assert.Equal(t, int32(2), hits.Load())
}

func TestListOperatorDefinitions_DecodesSpec(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/operator-definitions", r.URL.Path)
		assert.Equal(t, "VIEW_FULL", r.URL.Query().Get("view"))
		writeJSON(w, http.StatusOK, map[string]any{
			"operator_definitions": []any{map[string]any{
				"name": "operator-definitions/start",
				"id":   "start",
				"spec": map[string]any{
					"component_specification": map[string]any{"type": "object"},
				},
			}},
		})
	})

	defs, err := c.ListOperatorDefinitions(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "start", defs[0].ID)
	assert.Equal(t, "object", defs[0].Spec.ComponentSpecification["type"])
}

func TestDefinitionFetches_AreCollapsed(t *testing.T) {
	release := make(chan struct{})
	arrived := make(chan struct{}, 1)
	c, hits := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case arrived <- struct{}{}:
		default:
		}
		<-release
		writeJSON(w, http.StatusOK, map[string]any{"connector_definitions": []any{map[string]any{"id": "ai-openai"}}})
	})

	var wg sync.WaitGroup
	results := make([][]sdk.Definition, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defs, err := c.ListConnectorDefinitions(context.Background())
			assert.NoError(t, err)
			results[i] = defs
		}(i)
	}

	<-arrived
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for _, defs := range results {
		require.Len(t, defs, 1)
		assert.Equal(t, "ai-openai", defs[0].ID)
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("Server errors are retried", func(t *testing.T) {
		var calls atomic.Int32
		c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				writeJSON(w, http.StatusBadGateway, map[string]any{"message": "upstream down"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": "alice"}})
		})

		user, err := c.GetUser(ctx, "users/alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.ID)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("Gives up after retry budget", func(t *testing.T) {
		c, hits := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
		})

		_, err := c.GetUserMe(ctx)
		var apiErr *sdk.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
		assert.Equal(t, "boom", apiErr.Message)
		assert.Equal(t, int32(4), hits.Load())
	})

	t.Run("Client errors are not retried", func(t *testing.T) {
		c, hits := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "no such pipeline"})
		})

		_, err := c.GetPipeline(ctx, "users/alice/pipelines/missing")
		require.Error(t, err)
		assert.True(t, sdk.IsNotFound(err))
		assert.Equal(t, int32(1), hits.Load())
	})
}

func TestListPipelines_OnePageWithFilters(t *testing.T) {
	c, hits := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/pipelines", r.URL.Path)
		assert.Equal(t, "VISIBILITY_PUBLIC", q.Get("visibility"))
		assert.Equal(t, `id="summarize"`, q.Get("filter"))
		assert.Equal(t, "10", q.Get("page_size"))
		assert.Equal(t, "tok", q.Get("page_token"))
		writeJSON(w, http.StatusOK, map[string]any{
			"pipelines":       []any{map[string]any{"id": "summarize"}},
			"next_page_token": "more",
			"total_size":      11,
		})
	})

	page, err := c.ListPipelines(context.Background(), sdk.PipelinesQuery{
		PageSize:   10,
		PageToken:  "tok",
		Visibility: sdk.VisibilityPublic,
		Filter:     `id="summarize"`,
	})
	require.NoError(t, err)
	assert.Equal(t, "more", page.NextPageToken)
	assert.Equal(t, 11, page.TotalSize)
	require.Len(t, page.Pipelines, 1)
	assert.Equal(t, int32(1), hits.Load())
}

func TestListUserConnectors_TypeFilter(t *testing.T) {
	var filters []string
	var mu sync.Mutex
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/alice/connectors", r.URL.Path)
		mu.Lock()
		filters = append(filters, r.URL.Query().Get("filter"))
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"connectors": []any{map[string]any{"id": "my-openai"}}})
	})

	ctx := context.Background()
	_, err := c.ListUserConnectors(ctx, "users/alice", "CONNECTOR_TYPE_AI")
	require.NoError(t, err)
	conns, err := c.ListUserConnectors(ctx, "users/alice", sdk.ConnectorTypeAll)
	require.NoError(t, err)

	require.Len(t, conns, 1)
	assert.Equal(t, []string{"connector_type=CONNECTOR_TYPE_AI", ""}, filters)
}

func TestWatchConnectors(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/users/alice/connectors/broken/watch" {
			writeJSON(w, http.StatusNotFound, map[string]any{})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"state": "STATE_CONNECTED"})
	})

	states, err := c.WatchConnectors(context.Background(), []string{
		"users/alice/connectors/ok",
		"users/alice/connectors/broken",
	})
	require.NoError(t, err)
	assert.Equal(t, "STATE_CONNECTED", states["users/alice/connectors/ok"].State)
	assert.Equal(t, "STATE_ERROR", states["users/alice/connectors/broken"].State)
}

func TestUndeployModel(t *testing.T) {
	c, _ := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/alice/models/llama/undeploy", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"operation": map[string]any{"name": "operations/1", "done": false}})
	})

	op, err := c.UndeployModel(context.Background(), "users/alice/models/llama")
	require.NoError(t, err)
	assert.Equal(t, "operations/1", op.Name)
}
