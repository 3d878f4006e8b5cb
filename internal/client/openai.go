package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"gitchat/internal/logging"
)

// OpenAIClient implements Client for OpenAI-compatible chat-completions
// endpoints (DeepSeek). Tool declarations are remapped from the genai schema
// into the {type:"function"} wrapper these providers expect.
type OpenAIClient struct {
	baseURL           string
	apiKey            string
	model             string
	temperature       float32
	maxTokens         int32
	tools             []*genai.Tool
	retry             RetryConfig
	systemInstruction string
	http              *http.Client
}

// OpenAIOptions configures an OpenAIClient.
type OpenAIOptions struct {
	BaseURL         string // default: https://api.deepseek.com/v1
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	Retry           RetryConfig
	HTTPClient      *http.Client
}

// NewOpenAIClient creates a client for an OpenAI-compatible endpoint.
func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("API key required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.deepseek.com/v1"
	}
	if opts.Retry.MaxRetries == 0 {
		opts.Retry = DefaultRetryConfig()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	return &OpenAIClient{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		apiKey:      opts.APIKey,
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxOutputTokens,
		retry:       opts.Retry,
		http:        httpClient,
	}, nil
}

// SetSystemInstruction sets the system message prepended to every request.
func (c *OpenAIClient) SetSystemInstruction(instruction string) {
	c.systemInstruction = instruction
}

// SetTools sets the tools available for function calling.
func (c *OpenAIClient) SetTools(tools []*genai.Tool) {
	c.tools = tools
}

// Model returns the bound model id.
func (c *OpenAIClient) Model() string { return c.model }

// WithModel returns a client bound to a different model.
func (c *OpenAIClient) WithModel(modelID string) Client {
	clone := *c
	clone.model = modelID
	return &clone
}

type oaMessage struct {
	Role       string       `json:"role"`
	Content    string       `json:"content,omitempty"`
	ToolCalls  []oaToolCall `json:"tool_calls,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
}

type oaToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// SendTurn sends the history plus the new parts and returns the response.
func (c *OpenAIClient) SendTurn(ctx context.Context, history []*genai.Content, parts []*genai.Part) (*Response, error) {
	messages := c.buildMessages(history, parts)

	body := map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
	}
	if c.maxTokens > 0 {
		body["max_tokens"] = c.maxTokens
	}
	if decls := c.functionTools(); len(decls) > 0 {
		body["tools"] = decls
		body["tool_choice"] = "auto"
	}

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(c.retry.RetryDelay, attempt-1, c.retry.MaxDelay)
			logging.Info("retrying chat completion", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := c.doRequest(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.retry.MaxRetries, lastErr)
}

// SendTurnStream falls back to a single response: these endpoints stream
// SSE which buys nothing for tool-call turns, so the text arrives in one chunk.
func (c *OpenAIClient) SendTurnStream(ctx context.Context, history []*genai.Content, parts []*genai.Part, onText func(string)) (*Response, error) {
	resp, err := c.SendTurn(ctx, history, parts)
	if err != nil {
		return nil, err
	}
	if onText != nil && resp.Text != "" {
		onText(resp.Text)
	}
	return resp, nil
}

func (c *OpenAIClient) doRequest(ctx context.Context, body map[string]any) (*Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(httpResp.Body, 2048))
		return nil, fmt.Errorf("chat completion error %d: %s", httpResp.StatusCode, string(msg))
	}

	var parsed struct {
		Choices []struct {
			Message      oaMessage `json:"message"`
			FinishReason string    `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	choice := parsed.Choices[0]
	resp := &Response{Text: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				logging.Warn("unparseable tool arguments", "tool", tc.Function.Name, "error", err)
			}
		}
		resp.FunctionCalls = append(resp.FunctionCalls, &genai.FunctionCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}
	return resp, nil
}

// buildMessages converts genai history into OpenAI chat messages.
func (c *OpenAIClient) buildMessages(history []*genai.Content, parts []*genai.Part) []oaMessage {
	var messages []oaMessage
	if c.systemInstruction != "" {
		messages = append(messages, oaMessage{Role: "system", Content: c.systemInstruction})
	}

	convert := func(content *genai.Content) {
		role := "user"
		if content.Role == genai.RoleModel {
			role = "assistant"
		}
		msg := oaMessage{Role: role}
		var toolResponses []oaMessage
		for _, part := range content.Parts {
			switch {
			case part.Text != "":
				msg.Content += part.Text
			case part.FunctionCall != nil:
				args, _ := json.Marshal(part.FunctionCall.Args)
				tc := oaToolCall{ID: part.FunctionCall.ID, Type: "function"}
				if tc.ID == "" {
					tc.ID = uuid.NewString()
				}
				tc.Function.Name = part.FunctionCall.Name
				tc.Function.Arguments = string(args)
				msg.ToolCalls = append(msg.ToolCalls, tc)
			case part.FunctionResponse != nil:
				payload, _ := json.Marshal(part.FunctionResponse.Response)
				toolResponses = append(toolResponses, oaMessage{
					Role:       "tool",
					ToolCallID: part.FunctionResponse.ID,
					Content:    string(payload),
				})
			}
		}
		if msg.Content != "" || len(msg.ToolCalls) > 0 {
			messages = append(messages, msg)
		}
		messages = append(messages, toolResponses...)
	}

	for _, content := range history {
		convert(content)
	}
	convert(&genai.Content{Role: genai.RoleUser, Parts: parts})

	return messages
}

// functionTools maps the genai declarations into the {type:"function"} shape.
func (c *OpenAIClient) functionTools() []map[string]any {
	var out []map[string]any
	for _, tool := range c.tools {
		for _, decl := range tool.FunctionDeclarations {
			out = append(out, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        decl.Name,
					"description": decl.Description,
					"parameters":  SchemaToMap(decl.Parameters),
				},
			})
		}
	}
	return out
}

// SchemaToMap converts a genai schema into plain JSON schema, lower-casing
// the type names the Gemini API capitalizes.
func SchemaToMap(s *genai.Schema) map[string]any {
	if s == nil {
		return map[string]any{"type": "object"}
	}
	m := map[string]any{
		"type": strings.ToLower(string(s.Type)),
	}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		m["enum"] = s.Enum
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = SchemaToMap(prop)
		}
		m["properties"] = props
	}
	if len(s.Required) > 0 {
		m["required"] = s.Required
	}
	if s.Items != nil {
		m["items"] = SchemaToMap(s.Items)
	}
	return m
}

// Close releases resources.
func (c *OpenAIClient) Close() error { return nil }
