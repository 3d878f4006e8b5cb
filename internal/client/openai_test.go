package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newOpenAITestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewOpenAIClient(OpenAIOptions{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "deepseek-chat",
	})
	require.NoError(t, err)
	return c
}

func completionJSON(msg oaMessage) string {
	data, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": msg, "finish_reason": "stop"},
		},
	})
	return string(data)
}

func TestOpenAISendTurn(t *testing.T) {
	var gotBody map[string]any
	c := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		toolCall := oaToolCall{ID: "call-1", Type: "function"}
		toolCall.Function.Name = "read_file"
		toolCall.Function.Arguments = `{"path":"main.go"}`
		w.Write([]byte(completionJSON(oaMessage{
			Role: "assistant", Content: "let me look", ToolCalls: []oaToolCall{toolCall},
		})))
	})
	c.SetSystemInstruction("you are terse")

	resp, err := c.SendTurn(context.Background(), nil, []*genai.Part{genai.NewPartFromText("hello")})
	require.NoError(t, err)

	assert.Equal(t, "deepseek-chat", gotBody["model"])
	msgs := gotBody["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])

	assert.Equal(t, "let me look", resp.Text)
	require.Len(t, resp.FunctionCalls, 1)
	assert.Equal(t, "call-1", resp.FunctionCalls[0].ID)
	assert.Equal(t, "read_file", resp.FunctionCalls[0].Name)
	assert.Equal(t, map[string]any{"path": "main.go"}, resp.FunctionCalls[0].Args)
}

func TestOpenAIRetries(t *testing.T) {
	t.Run("transient errors retried", func(t *testing.T) {
		var calls atomic.Int32
		c := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(completionJSON(oaMessage{Role: "assistant", Content: "ok"})))
		})
		c.retry.RetryDelay = time.Millisecond

		resp, err := c.SendTurn(context.Background(), nil, []*genai.Part{genai.NewPartFromText("hi")})
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Text)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("permanent errors fail fast", func(t *testing.T) {
		var calls atomic.Int32
		c := newOpenAITestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "bad api key", http.StatusUnauthorized)
		})

		_, err := c.SendTurn(context.Background(), nil, []*genai.Part{genai.NewPartFromText("hi")})
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestOpenAIBuildMessages(t *testing.T) {
	c := &OpenAIClient{systemInstruction: "sys"}

	history := []*genai.Content{
		{Role: genai.RoleUser, Parts: []*genai.Part{genai.NewPartFromText("list the files")}},
		{Role: genai.RoleModel, Parts: []*genai.Part{
			{FunctionCall: &genai.FunctionCall{ID: "call-7", Name: "list_files", Args: map[string]any{"path": ""}}},
		}},
		{Role: genai.RoleUser, Parts: []*genai.Part{
			{FunctionResponse: &genai.FunctionResponse{ID: "call-7", Name: "list_files", Response: map[string]any{"success": true}}},
		}},
	}

	msgs := c.buildMessages(history, []*genai.Part{genai.NewPartFromText("thanks")})
	require.Len(t, msgs, 5)

	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)

	assert.Equal(t, "assistant", msgs[2].Role)
	require.Len(t, msgs[2].ToolCalls, 1)
	assert.Equal(t, "call-7", msgs[2].ToolCalls[0].ID)
	assert.Equal(t, "list_files", msgs[2].ToolCalls[0].Function.Name)

	assert.Equal(t, "tool", msgs[3].Role)
	assert.Equal(t, "call-7", msgs[3].ToolCallID)
	assert.JSONEq(t, `{"success":true}`, msgs[3].Content)

	assert.Equal(t, "user", msgs[4].Role)
	assert.Equal(t, "thanks", msgs[4].Content)
}

func TestOpenAIGeneratesToolCallIDs(t *testing.T) {
	c := &OpenAIClient{}
	history := []*genai.Content{
		{Role: genai.RoleModel, Parts: []*genai.Part{
			{FunctionCall: &genai.FunctionCall{Name: "grep_search", Args: map[string]any{}}},
		}},
	}

	msgs := c.buildMessages(history, nil)
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].ToolCalls, 1)
	assert.NotEmpty(t, msgs[0].ToolCalls[0].ID)
}

func TestSchemaToMap(t *testing.T) {
	schema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"path": {Type: genai.TypeString, Description: "file path"},
			"tags": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString, Enum: []string{"a", "b"}},
			},
		},
		Required: []string{"path"},
	}

	m := SchemaToMap(schema)
	assert.Equal(t, "object", m["type"])
	assert.Equal(t, []string{"path"}, m["required"])

	props := m["properties"].(map[string]any)
	path := props["path"].(map[string]any)
	assert.Equal(t, "string", path["type"])
	assert.Equal(t, "file path", path["description"])

	tags := props["tags"].(map[string]any)
	assert.Equal(t, "array", tags["type"])
	items := tags["items"].(map[string]any)
	assert.Equal(t, "string", items["type"])
	assert.Equal(t, []string{"a", "b"}, items["enum"])

	assert.Equal(t, map[string]any{"type": "object"}, SchemaToMap(nil))
}

func TestProviderFor(t *testing.T) {
	assert.Equal(t, "deepseek", ProviderFor("deepseek-chat"))
	assert.Equal(t, "gemini", ProviderFor("gemini-2.5-pro"))
	assert.Equal(t, "gemini", ProviderFor("something-new"))
}

func TestOpenAIWithModel(t *testing.T) {
	c := &OpenAIClient{model: "deepseek-chat", apiKey: "k"}
	clone := c.WithModel("deepseek-reasoner")
	assert.Equal(t, "deepseek-reasoner", clone.Model())
	assert.Equal(t, "deepseek-chat", c.Model())
}
