package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"gitchat/internal/logging"
)

// GeminiClient wraps the Google Gemini API.
type GeminiClient struct {
	client            *genai.Client
	model             string
	genConfig         *genai.GenerateContentConfig
	tools             []*genai.Tool
	retry             RetryConfig
	systemInstruction string
}

// GeminiOptions configures a GeminiClient.
type GeminiOptions struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	Retry           RetryConfig
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key required")
	}
	if opts.Retry.MaxRetries == 0 {
		opts.Retry = DefaultRetryConfig()
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  opts.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:     Ptr(opts.Temperature),
		MaxOutputTokens: opts.MaxOutputTokens,
	}

	return &GeminiClient{
		client:    c,
		model:     opts.Model,
		genConfig: genConfig,
		retry:     opts.Retry,
	}, nil
}

// SetSystemInstruction sets the system-level instruction for the model.
func (c *GeminiClient) SetSystemInstruction(instruction string) {
	c.systemInstruction = instruction
}

// SetTools sets the tools available for function calling.
func (c *GeminiClient) SetTools(tools []*genai.Tool) {
	c.tools = tools
}

// Model returns the bound model id.
func (c *GeminiClient) Model() string { return c.model }

// WithModel returns a client bound to a different model, sharing the
// underlying connection, tools and system instruction.
func (c *GeminiClient) WithModel(modelID string) Client {
	clone := *c
	clone.model = modelID
	return &clone
}

// SendTurn sends the history plus the new parts and collects the response.
func (c *GeminiClient) SendTurn(ctx context.Context, history []*genai.Content, parts []*genai.Part) (*Response, error) {
	return c.SendTurnStream(ctx, history, parts, nil)
}

// SendTurnStream streams the response, forwarding text chunks to onText,
// and returns the collected Response once the stream completes.
func (c *GeminiClient) SendTurnStream(ctx context.Context, history []*genai.Content, parts []*genai.Part, onText func(string)) (*Response, error) {
	contents := make([]*genai.Content, len(history), len(history)+1)
	copy(contents, history)
	contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
	contents = sanitizeContents(contents)

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(c.retry.RetryDelay, attempt-1, c.retry.MaxDelay)
			logging.Info("retrying Gemini request", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := c.doStream(ctx, contents, onText)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return nil, err
		}
		logging.Warn("Gemini request failed, will retry", "attempt", attempt, "error", err)
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.retry.MaxRetries, lastErr)
}

func (c *GeminiClient) doStream(ctx context.Context, contents []*genai.Content, onText func(string)) (*Response, error) {
	cfg := *c.genConfig
	if c.systemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(c.systemInstruction, genai.RoleUser)
	}
	if len(c.tools) > 0 {
		cfg.Tools = c.tools
	}

	resp := &Response{}
	for chunk, err := range c.client.Models.GenerateContentStream(ctx, c.model, contents, &cfg) {
		if err != nil {
			return nil, err
		}
		if chunk == nil || len(chunk.Candidates) == 0 {
			continue
		}
		candidate := chunk.Candidates[0]
		if candidate.FinishReason != "" {
			resp.FinishReason = candidate.FinishReason
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Thought {
				continue
			}
			if part.Text != "" {
				resp.Text += part.Text
				if onText != nil {
					onText(part.Text)
				}
			}
			if part.FunctionCall != nil {
				resp.FunctionCalls = append(resp.FunctionCalls, part.FunctionCall)
			}
		}
	}
	return resp, nil
}

// sanitizeContents drops empty parts and guarantees every content has at
// least one part, which the API requires.
func sanitizeContents(contents []*genai.Content) []*genai.Content {
	var result []*genai.Content
	for _, content := range contents {
		if content == nil {
			continue
		}
		var validParts []*genai.Part
		for _, part := range content.Parts {
			if part == nil {
				continue
			}
			if part.FunctionCall != nil || part.FunctionResponse != nil || part.Text != "" || part.InlineData != nil {
				validParts = append(validParts, part)
			}
		}
		if len(validParts) == 0 {
			validParts = []*genai.Part{genai.NewPartFromText(" ")}
		}
		result = append(result, &genai.Content{Role: content.Role, Parts: validParts})
	}
	if len(result) == 0 {
		result = []*genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(" ")},
		}}
	}
	return result
}

// Close closes the client connection.
func (c *GeminiClient) Close() error {
	// The genai client has no explicit close
	return nil
}
