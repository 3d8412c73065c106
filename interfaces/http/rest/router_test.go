package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"canvas-ai/application/commands/bus"
	commandhandlers "canvas-ai/application/commands/handlers"
	querybus "canvas-ai/application/queries/bus"
	queryhandlers "canvas-ai/application/queries/handlers"
	"canvas-ai/application/services"
	"canvas-ai/domain/chat"
	"canvas-ai/domain/config"
	"canvas-ai/infrastructure/ai"
	"canvas-ai/infrastructure/messaging/logging"
	"canvas-ai/infrastructure/persistence/memory"
	"canvas-ai/interfaces/http/rest/handlers"
	"canvas-ai/pkg/auth"
	"canvas-ai/pkg/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiOptions struct {
	validator *auth.JWTValidator
	limiter   auth.RateLimiter
}

type apiFixture struct {
	handler http.Handler
	store   *memory.SnapshotStore
	graphs  *services.GraphStore
}

// newAPI wires the full application around an in-memory store and the mock connector
func newAPI(t *testing.T, opts apiOptions) *apiFixture {
	t.Helper()
	logger := zap.NewNop()
	dc := config.DefaultDomainConfig()
	store := memory.NewSnapshotStore()
	mock := ai.NewMockConnector(dc, 0, logger)
	publisher := &logging.Recorder{}
	collector := observability.NewCollector("canvas_ai_test", nil)

	graphs := services.NewGraphStore(store, mock, publisher, collector, dc, "", logger)
	_, err := graphs.Load(context.Background())
	require.NoError(t, err)

	session := chat.NewSession()
	router := services.NewIntentRouter(mock, graphs, session, publisher, collector, dc, logger)
	t.Cleanup(router.Close)
	edits := services.NewEditSession(graphs, logger)

	commandBus := bus.NewCommandBus()
	commandBus.Use(bus.LoggingMiddleware(logger.Sugar()), bus.MetricsMiddleware(collector))
	require.NoError(t, commandhandlers.RegisterAll(commandBus,
		commandhandlers.NewGraphHandlers(graphs, edits, router, dc, logger),
		commandhandlers.NewChatHandlers(router, logger),
		commandhandlers.NewEditHandlers(edits),
	))

	queryBus := querybus.NewQueryBus()
	queryBus.Use(querybus.NewMetricsMiddleware(collector))
	require.NoError(t, queryhandlers.NewQueryHandlers(graphs, session, router, edits).RegisterAll(queryBus))

	checks := map[string]handlers.ReadinessCheck{
		"storage": func(ctx context.Context) error {
			_, _, err := store.Get(ctx, "readiness-check")
			return err
		},
	}

	rt := NewRouter(commandBus, queryBus, RouterConfig{EnableCORS: true, AllowedOrigins: []string{"*"}},
		opts.validator, opts.limiter, collector, nil, checks, logger)
	return &apiFixture{handler: rt.Setup(), store: store, graphs: graphs}
}

func (f *apiFixture) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type errorBody struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details"`
}

type graphBody struct {
	Nodes []struct {
		ID   string `json:"id"`
		Data struct {
			Title string `json:"title"`
		} `json:"data"`
	} `json:"nodes"`
	Edges    []json.RawMessage `json:"edges"`
	Metadata struct {
		Version  string `json:"version"`
		Revision int    `json:"revision"`
	} `json:"metadata"`
	Empty   bool `json:"empty"`
	CanUndo bool `json:"canUndo"`
}

func (g graphBody) title(id string) string {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n.Data.Title
		}
	}
	return ""
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.True(t, env.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func (f *apiFixture) generate(t *testing.T) graphBody {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/graph/generate", `{"prompt": "Create a sales funnel"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var g graphBody
	decodeData(t, rec, &g)
	return g
}

func TestProbes(t *testing.T) {
	api := newAPI(t, apiOptions{})

	rec := api.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"storage":"ok"`)

	api.generate(t)
	rec = api.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "canvas_ai_test_graph_generations_total")
	assert.Contains(t, rec.Body.String(), "canvas_ai_test_http_requests_total")
}

func TestGraphEndpoints(t *testing.T) {
	api := newAPI(t, apiOptions{})

	t.Run("starts empty", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/v1/graph", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))

		var g graphBody
		decodeData(t, rec, &g)
		assert.True(t, g.Empty)
		assert.Empty(t, g.Nodes)
	})

	t.Run("empty prompt is a generation error", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/v1/graph/generate", `{"prompt": "   "}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "GENERATION", decodeError(t, rec).Type)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/v1/graph/generate", `{"prompt": "x", "model": "y"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION", decodeError(t, rec).Type)
	})

	t.Run("generate", func(t *testing.T) {
		g := api.generate(t)
		assert.False(t, g.Empty)
		assert.Len(t, g.Nodes, 3)
		assert.Len(t, g.Edges, 2)
		assert.Equal(t, "Lead Capture", g.title("1"))
		assert.False(t, g.CanUndo)
	})

	t.Run("update node then undo", func(t *testing.T) {
		rec := api.do(t, http.MethodPatch, "/api/v1/graph/nodes/1", `{"title": "Signup"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var g graphBody
		decodeData(t, rec, &g)
		assert.Equal(t, "Signup", g.title("1"))
		assert.True(t, g.CanUndo)

		rec = api.do(t, http.MethodPost, "/api/v1/graph/undo", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decodeData(t, rec, &g)
		assert.Equal(t, "Lead Capture", g.title("1"))
	})

	t.Run("update unknown node", func(t *testing.T) {
		rec := api.do(t, http.MethodPatch, "/api/v1/graph/nodes/99", `{"title": "Ghost"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update with blank title", func(t *testing.T) {
		rec := api.do(t, http.MethodPatch, "/api/v1/graph/nodes/1", `{"title": "  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("patch", func(t *testing.T) {
		body := `{"operations": [
			{"op": "add_node", "node": {"id": "4", "type": "note", "data": {"title": "Won"}, "position": {"x": 0, "y": 450}}},
			{"op": "add_edge", "edge": {"id": "e3", "sourceId": "3", "targetId": "4"}}
		]}`
		rec := api.do(t, http.MethodPost, "/api/v1/graph/patch", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var g graphBody
		decodeData(t, rec, &g)
		assert.Len(t, g.Nodes, 4)
		assert.Len(t, g.Edges, 3)
	})

	t.Run("conflicting patch leaves graph unchanged", func(t *testing.T) {
		body := `{"operations": [
			{"op": "remove_node", "nodeId": "4"},
			{"op": "remove_node", "nodeId": "missing"}
		]}`
		rec := api.do(t, http.MethodPost, "/api/v1/graph/patch", body)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "PATCH_CONFLICT", decodeError(t, rec).Type)
		assert.Equal(t, 4, api.graphs.Current().NodeCount())
	})

	t.Run("malformed patch", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/v1/graph/patch", `{"operations": [{"op": "explode"}]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("export", func(t *testing.T) {
		rec := api.do(t, http.MethodGet, "/api/v1/graph/export", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="canvas-ai-graph.json"`)

		var doc struct {
			Nodes map[string]json.RawMessage `json:"nodes"`
			Edges map[string]json.RawMessage `json:"edges"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		assert.Len(t, doc.Nodes, 4)
		assert.Contains(t, doc.Edges, "e3")
	})

	t.Run("clear requires confirmation", func(t *testing.T) {
		rec := api.do(t, http.MethodDelete, "/api/v1/graph", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, api.graphs.IsEmpty())

		rec = api.do(t, http.MethodDelete, "/api/v1/graph?confirm=true", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var g graphBody
		decodeData(t, rec, &g)
		assert.True(t, g.Empty)

		_, found, err := api.store.Get(context.Background(), "canvas-ai-storage")
		require.NoError(t, err)
		assert.False(t, found)

		rec = api.do(t, http.MethodGet, "/api/v1/chat/messages?since=0", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var log struct {
			Messages []chat.Message `json:"messages"`
		}
		decodeData(t, rec, &log)
		require.NotEmpty(t, log.Messages)
		last := log.Messages[len(log.Messages)-1]
		assert.Equal(t, chat.KindNotice, last.Kind)
		assert.Equal(t, chat.ClearedNotice, last.Text)
	})
}

func TestChatEndpoints(t *testing.T) {
	api := newAPI(t, apiOptions{})
	api.generate(t)

	t.Run("chat reply leaves the graph alone", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/v1/chat/messages", `{"text": "Hi, this is a chat test"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var turn handlers.TurnResponse
		decodeData(t, rec, &turn)
		assert.Equal(t, string(services.TurnRepliedOnly), turn.Outcome)
		assert.Equal(t, "chat", turn.Intent)
		require.NotNil(t, turn.Reply)
		assert.Equal(t, ai.MockChatReply, turn.Reply.Text)
		assert.Nil(t, turn.Graph)
		assert.Equal(t, 3, api.graphs.Current().NodeCount())
	})

	t.Run("refinement returns the patched graph", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/v1/chat/messages", `{"text": "add a node called Verification"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var turn handlers.TurnResponse
		decodeData(t, rec, &turn)
		assert.Equal(t, string(services.TurnRepliedAndPatched), turn.Outcome)
		require.NotNil(t, turn.Graph)
		assert.Len(t, turn.Graph.Nodes, 4)
		assert.Equal(t, ai.MockRefineReply, turn.Reply.Text)
	})

	t.Run("queued without waiting", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/v1/chat/messages", `{"text": "hello again", "wait": false}`)
		require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

		var turn handlers.TurnResponse
		decodeData(t, rec, &turn)
		assert.NotEmpty(t, turn.ID)
	})

	t.Run("empty text", func(t *testing.T) {
		rec := api.do(t, http.MethodPost, "/api/v1/chat/messages", `{"text": ""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("log", func(t *testing.T) {
		var log struct {
			Messages []chat.Message `json:"messages"`
			LastSeq  int            `json:"lastSeq"`
		}
		require.Eventually(t, func() bool {
			rec := api.do(t, http.MethodGet, "/api/v1/chat/messages?since=0", "")
			var env envelope
			if rec.Code != http.StatusOK || json.Unmarshal(rec.Body.Bytes(), &env) != nil {
				return false
			}
			if json.Unmarshal(env.Data, &log) != nil {
				return false
			}
			// greeting plus three user messages and three replies
			return len(log.Messages) == 7
		}, 5*time.Second, 20*time.Millisecond)

		assert.Equal(t, chat.Greeting, log.Messages[0].Text)
		assert.Equal(t, chat.RoleUser, log.Messages[1].Role)
		assert.Equal(t, log.Messages[6].Seq, log.LastSeq)

		rec := api.do(t, http.MethodGet, "/api/v1/chat/messages?since=5", "")
		decodeData(t, rec, &log)
		assert.Len(t, log.Messages, 2)

		rec = api.do(t, http.MethodGet, "/api/v1/chat/messages?since=abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEditEndpoints(t *testing.T) {
	api := newAPI(t, apiOptions{})
	api.generate(t)

	rec := api.do(t, http.MethodPost, "/api/v1/edit/begin", `{"nodeId": "2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var edit handlers.EditResponse
	decodeData(t, rec, &edit)
	assert.Equal(t, "editing", edit.State)
	assert.Equal(t, "Qualify Lead", edit.Draft)

	rec = api.do(t, http.MethodPost, "/api/v1/edit/begin", `{"nodeId": "3"}`)
	decodeData(t, rec, &edit)
	assert.True(t, edit.PreviousCancelled)
	assert.Equal(t, "2", edit.PreviousNodeID)

	rec = api.do(t, http.MethodPut, "/api/v1/edit/draft", `{"title": "Sync CRM"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/edit", "")
	decodeData(t, rec, &edit)
	assert.Equal(t, "Sync CRM", edit.Draft)

	rec = api.do(t, http.MethodPost, "/api/v1/edit/commit", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var commit struct {
		Committed bool      `json:"committed"`
		NodeID    string    `json:"nodeId"`
		Graph     graphBody `json:"graph"`
	}
	decodeData(t, rec, &commit)
	assert.True(t, commit.Committed)
	assert.Equal(t, "Sync CRM", commit.Graph.title("3"))

	rec = api.do(t, http.MethodPost, "/api/v1/edit/begin", `{"nodeId": "404"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/edit/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &edit)
	assert.Equal(t, "idle", edit.State)
}

func TestAuthentication(t *testing.T) {
	validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: "s3cret", Issuer: "canvas-ai"})
	require.NoError(t, err)
	api := newAPI(t, apiOptions{validator: validator})

	rec := api.do(t, http.MethodGet, "/api/v1/graph", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "UNAUTHORIZED", body.Type)
	assert.Equal(t, "TOKEN_MISSING", body.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/graph", "", "Authorization", "Bearer nonsense")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_INVALID", decodeError(t, rec).Code)

	gen, err := auth.NewJWTGenerator("s3cret", "canvas-ai", nil, time.Hour)
	require.NoError(t, err)
	token, err := gen.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	rec = api.do(t, http.MethodGet, "/api/v1/graph", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Probes stay public
	rec = api.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	api := newAPI(t, apiOptions{limiter: auth.NewKeyedLimiter(1, 2)})

	for i := 0; i < 2; i++ {
		rec := api.do(t, http.MethodGet, "/api/v1/graph", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := api.do(t, http.MethodGet, "/api/v1/graph", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	body := decodeError(t, rec)
	assert.Equal(t, "RATE_LIMIT", body.Type)
	assert.Equal(t, "rate limit exceeded: 1 requests per minute", body.Message)
	assert.Equal(t, 60.0, body.Details["retry_after_seconds"])

	// Another client has its own budget
	rec = api.do(t, http.MethodGet, "/api/v1/graph", "", "X-Forwarded-For", "198.51.100.7")
	assert.Equal(t, http.StatusOK, rec.Code)
}
