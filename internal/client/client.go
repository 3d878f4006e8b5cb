// Package client abstracts the model providers behind one interface. The
// orchestration loop only sees genai content/part types and a Response; the
// provider-specific wire formats (Gemini native, OpenAI-compatible) stay here.
package client

import (
	"context"

	"google.golang.org/genai"
)

// ModelInfo describes one selectable model.
type ModelInfo struct {
	ID          string
	Name        string
	Description string
	Provider    string // "gemini" or "deepseek"
}

// AvailableModels is the list of supported models across providers.
var AvailableModels = []ModelInfo{
	{
		ID:          "gemini-2.5-flash",
		Name:        "Gemini 2.5 Flash",
		Description: "Fast planning-tier model",
		Provider:    "gemini",
	},
	{
		ID:          "gemini-2.5-pro",
		Name:        "Gemini 2.5 Pro",
		Description: "Strong execution-tier model",
		Provider:    "gemini",
	},
	{
		ID:          "gemini-3-flash-preview",
		Name:        "Gemini 3 Flash",
		Description: "Fast planning-tier model (preview)",
		Provider:    "gemini",
	},
	{
		ID:          "gemini-3-pro-preview",
		Name:        "Gemini 3 Pro",
		Description: "Strong execution-tier model (preview)",
		Provider:    "gemini",
	},
	{
		ID:          "deepseek-chat",
		Name:        "DeepSeek Chat",
		Description: "OpenAI-compatible coding model",
		Provider:    "deepseek",
	},
}

// ProviderFor returns the provider for a model id. Unknown ids default to
// gemini so bare model names keep working.
func ProviderFor(modelID string) string {
	for _, m := range AvailableModels {
		if m.ID == modelID {
			return m.Provider
		}
	}
	return "gemini"
}

// Client is the model provider interface consumed by the loop controller.
type Client interface {
	// SendTurn sends the accumulated history plus the new parts and returns
	// the model's text and requested tool calls.
	SendTurn(ctx context.Context, history []*genai.Content, parts []*genai.Part) (*Response, error)

	// SendTurnStream is the streaming variant: onText receives incremental
	// text chunks before the final Response (with tool calls) is returned.
	SendTurnStream(ctx context.Context, history []*genai.Content, parts []*genai.Part, onText func(string)) (*Response, error)

	// SetTools sets the function declarations available to the model.
	SetTools(tools []*genai.Tool)

	// SetSystemInstruction sets the system-level instruction, passed via the
	// provider's native system parameter rather than the history.
	SetSystemInstruction(instruction string)

	// Model returns the bound model id.
	Model() string

	// WithModel returns a client bound to a different model, sharing
	// credentials, tools and system instruction.
	WithModel(modelID string) Client

	// Close releases provider resources.
	Close() error
}

// Response is a complete model response for one round.
type Response struct {
	Text          string
	FunctionCalls []*genai.FunctionCall
	FinishReason  genai.FinishReason
}

// Ptr returns a pointer to the given value.
func Ptr[T any](v T) *T {
	return &v
}
