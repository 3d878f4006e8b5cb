package tools

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"gitchat/internal/repo"
)

// WriteFileTool stages a full-content overwrite of a repository file.
// Nothing reaches the remote branch until push_to_github runs.
type WriteFileTool struct {
	ws *repo.Workspace
}

// NewWriteFileTool creates a new WriteFileTool instance.
func NewWriteFileTool(ws *repo.Workspace) *WriteFileTool {
	return &WriteFileTool{ws: ws}
}

func (t *WriteFileTool) Name() string {
	return "write_file"
}

func (t *WriteFileTool) Description() string {
	return "Writes the complete content of a file, creating it if needed. The write is staged until push_to_github."
}

func (t *WriteFileTool) Declaration() *genai.FunctionDeclaration {
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
				"content": {
					Type:        genai.TypeString,
					Description: "The complete new file content.",
				},
			},
			Required: []string{"path", "content"},
		},
	}
}

func (t *WriteFileTool) Validate(args map[string]any) error {
	path, ok := GetString(args, "path")
	if !ok || path == "" {
		return NewValidationError("path", "is required")
	}
	if _, ok := GetString(args, "content"); !ok {
		return NewValidationError("content", "is required")
	}
	return nil
}

func (t *WriteFileTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	path, _ := GetString(args, "path")
	content, _ := GetString(args, "content")

	t.ws.Stage(path, content)

	lines := strings.Count(content, "\n") + 1
	return NewSuccessResult(fmt.Sprintf("Wrote %s (%d lines). Staged for commit.", path, lines)), nil
}
