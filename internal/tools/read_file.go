package tools

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"gitchat/internal/github"
	"gitchat/internal/repo"
)

// ReadFileTool returns the full content of a repository file, served from
// the workspace cache when possible.
type ReadFileTool struct {
	ws *repo.Workspace
}

// NewReadFileTool creates a new ReadFileTool instance.
func NewReadFileTool(ws *repo.Workspace) *ReadFileTool {
	return &ReadFileTool{ws: ws}
}

func (t *ReadFileTool) Name() string {
	return "read_file"
}

func (t *ReadFileTool) Description() string {
	return "Reads the full content of a file in the repository. Staged, not-yet-pushed edits are visible."
}

func (t *ReadFileTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"path": {
					Type:        genai.TypeString,
					Description: "File path relative to the repository root.",
				},
			},
			Required: []string{"path"},
		},
	}
}

func (t *ReadFileTool) Validate(args map[string]any) error {
	path, ok := GetString(args, "path")
	if !ok || path == "" {
		return NewValidationError("path", "is required")
	}
	return nil
}

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	path, _ := GetString(args, "path")

	content, err := t.ws.Cache().Fetch(ctx, path)
	if err != nil {
		if github.IsNotFound(err) {
			return NewErrorResult(fmt.Sprintf("file not found: %s", path)), nil
		}
		return NewErrorResult(fmt.Sprintf("error reading file: %s", err)), nil
	}

	return NewSuccessResult(content), nil
}
