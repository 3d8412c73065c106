package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"canvas-ai/domain/core/aggregates"
	"canvas-ai/domain/intent"
	pkgerrors "canvas-ai/pkg/errors"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// completionServer answers every chat completion with content
func completionServer(t *testing.T, content string, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:     "cmpl-1",
			Object: "chat.completion",
			Model:  req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
}

func newTestOpenAI(t *testing.T, url string) *OpenAIConnector {
	t.Helper()
	c, err := NewOpenAIConnector(OpenAIConfig{APIKey: "test-key", BaseURL: url + "/", Model: "test-model"}, nil, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewOpenAIConnector_RequiresKey(t *testing.T) {
	_, err := NewOpenAIConnector(OpenAIConfig{}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestOpenAIConnector_Generate(t *testing.T) {
	content := "```json\n" + `{
  "nodes": {
    "a": {"id": "a", "type": "topic", "data": {"title": "Order"}, "position": {"x": 0, "y": 0}},
    "b": {"id": "b", "data": {"title": "Ship"}, "position": {"x": 0, "y": 150}},
    "c": {"id": "c", "data": {"title": ""}, "position": {"x": 0, "y": 300}}
  },
  "edges": {
    "ab": {"id": "ab", "sourceId": "a", "targetId": "b"},
    "bz": {"id": "bz", "sourceId": "b", "targetId": "z"}
  },
  "metadata": {"version": "1.0.0"}
}` + "\n```"

	server := completionServer(t, content, nil)
	defer server.Close()

	g, err := newTestOpenAI(t, server.URL).Generate(context.Background(), "order flow")

	require.NoError(t, err)
	// The untitled node and the dangling edge are dropped
	assert.Equal(t, 2, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
	_, ok := g.FindNodeByTitle("Ship")
	assert.True(t, ok)
}

func TestOpenAIConnector_Respond(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, resp *intent.Response)
		errType pkgerrors.ErrorType
	}{
		{
			name:    "chat",
			content: `{"intent": "chat", "reply": "A funnel tracks conversion."}`,
			check: func(t *testing.T, resp *intent.Response) {
				assert.Equal(t, intent.KindChat, resp.Intent)
				assert.Equal(t, "A funnel tracks conversion.", resp.ReplyText)
			},
		},
		{
			name: "refine with patch",
			content: `{"intent": "Refine", "reply": "Renamed.", "patch": {"operations": [
				{"op": "update_node", "nodeId": "1", "fields": {"title": "Signup"}}
			]}}`,
			check: func(t *testing.T, resp *intent.Response) {
				require.True(t, resp.IsRefine())
				assert.Equal(t, "Renamed.", resp.ReplyText)
				require.Len(t, resp.Patch.Operations, 1)
				assert.Equal(t, aggregates.OpUpdateNode, resp.Patch.Operations[0].Op)
				assert.Equal(t, "Signup", *resp.Patch.Operations[0].Fields.Title)
			},
		},
		{
			name: "refine with full graph is diffed",
			content: `{"intent": "refine", "reply": "Dropped the CRM step.", "graph": {
				"nodes": {
					"1": {"id": "1", "type": "topic", "data": {"title": "Lead Capture", "body": "Landing Page form submission"}, "position": {"x": 0, "y": 0}},
					"2": {"id": "2", "type": "action", "data": {"title": "Qualify Lead", "body": "Check budget and timeline"}, "position": {"x": 0, "y": 150}}
				},
				"edges": {"e1": {"id": "e1", "sourceId": "1", "targetId": "2", "label": "Submit"}}
			}}`,
			check: func(t *testing.T, resp *intent.Response) {
				require.True(t, resp.IsRefine())
				var ops []aggregates.PatchOpType
				for _, op := range resp.Patch.Operations {
					ops = append(ops, op.Op)
				}
				assert.Equal(t, []aggregates.PatchOpType{aggregates.OpRemoveEdge, aggregates.OpRemoveNode}, ops)
				assert.Equal(t, "3", resp.Patch.Operations[1].NodeID.String())
			},
		},
		{
			name:    "refine without patch",
			content: `{"intent": "refine", "reply": "Done."}`,
			errType: pkgerrors.ErrorTypeExternal,
		},
		{
			name:    "unknown intent",
			content: `{"intent": "shrug", "reply": "?"}`,
			errType: pkgerrors.ErrorTypeExternal,
		},
		{
			name:    "not json",
			content: `Sure! I added the node.`,
			errType: pkgerrors.ErrorTypeExternal,
		},
		{
			name:    "malformed patch",
			content: `{"intent": "refine", "reply": "x", "patch": {"operations": [{"op": "explode"}]}}`,
			errType: pkgerrors.ErrorTypeExternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := completionServer(t, tt.content, nil)
			defer server.Close()

			resp, err := newTestOpenAI(t, server.URL).Respond(context.Background(), "do it", funnel(t))

			if tt.errType != "" {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsType(err, tt.errType), "got %v", err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, resp.Validate())
			tt.check(t, resp)
		})
	}
}

func TestOpenAIConnector_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer server.Close()

	_, err := newTestOpenAI(t, server.URL).Respond(context.Background(), "hello", funnel(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI API call failed")
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`  {"a":1} `))
}
