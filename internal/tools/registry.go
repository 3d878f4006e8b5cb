package tools

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"gitchat/internal/config"
	"gitchat/internal/github"
	"gitchat/internal/logging"
	"gitchat/internal/repo"
)

// Registry manages the collection of available tools.
type Registry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Get retrieves a tool by name (read-optimized with RLock).
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all registered tools (read-optimized).
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	return tools
}

// Names returns the names of all registered tools (read-optimized).
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Declarations returns all tool declarations (read-optimized).
func (r *Registry) Declarations() []*genai.FunctionDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	declarations := make([]*genai.FunctionDeclaration, 0, len(r.tools))
	for _, tool := range r.tools {
		declarations = append(declarations, tool.Declaration())
	}
	return declarations
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}

	r.tools[name] = tool
	return nil
}

// MustRegister adds a tool to the registry and logs a warning on error.
func (r *Registry) MustRegister(tool Tool) {
	if err := r.Register(tool); err != nil {
		logging.Warn("failed to register tool", "tool", tool.Name(), "error", err)
	}
}

// GeminiTools returns the tools in Gemini format.
func (r *Registry) GeminiTools() []*genai.Tool {
	return []*genai.Tool{
		{
			FunctionDeclarations: r.Declarations(),
		},
	}
}

// Browser is the read-side gateway surface used by listing and search tools.
type Browser interface {
	ListDir(ctx context.Context, path string) ([]github.Entry, error)
	SearchCode(ctx context.Context, query string) ([]string, error)
	GetCheckRuns(ctx context.Context) ([]github.CheckRun, error)
}

// DefaultRegistry creates a registry with all default tools bound to the
// given workspace and gateway.
func DefaultRegistry(ws *repo.Workspace, browser Browser, cfg config.ToolsConfig) *Registry {
	r := NewRegistry()

	r.MustRegister(NewListFilesTool(browser))
	r.MustRegister(NewReadFileTool(ws))
	r.MustRegister(NewViewFileTool(ws, cfg.ViewMaxLines))
	r.MustRegister(NewGrepSearchTool(ws, cfg.GrepMaxResults))
	r.MustRegister(NewSearchCodeTool(ws, browser, cfg.SearchTopHits))
	r.MustRegister(NewWriteFileTool(ws))
	r.MustRegister(NewPatchFileTool(ws))
	r.MustRegister(NewPatchFileMultiTool(ws))
	r.MustRegister(NewPushTool(ws))
	r.MustRegister(NewBuildStatusTool(browser))

	if cfg.AllowRunCommand {
		r.MustRegister(NewRunCommandTool(cfg.RunCommandDir))
	}

	return r
}
