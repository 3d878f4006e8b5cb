package tools

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"gitchat/internal/github"
	"gitchat/internal/repo"
)

// PatchFileTool applies a single literal search/replace to one file and
// stages the result.
type PatchFileTool struct {
	ws *repo.Workspace
}

// NewPatchFileTool creates a new PatchFileTool instance.
func NewPatchFileTool(ws *repo.Workspace) *PatchFileTool {
	return &PatchFileTool{ws: ws}
}

func (t *PatchFileTool) Name() string {
	return "patch_file"
}

func (t *PatchFileTool) Description() string {
	return "Replaces one exact text block in a file. The search text must appear exactly once. The edit is staged until push_to_github."
}

func (t *PatchFileTool) Declaration() *genai.FunctionDeclaration {
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
				"search": {
					Type:        genai.TypeString,
					Description: "Exact text to find, including whitespace and indentation. Literal, not a pattern.",
				},
				"replace": {
					Type:        genai.TypeString,
					Description: "Text to replace it with.",
				},
			},
			Required: []string{"path", "search", "replace"},
		},
	}
}

func (t *PatchFileTool) Validate(args map[string]any) error {
	path, ok := GetString(args, "path")
	if !ok || path == "" {
		return NewValidationError("path", "is required")
	}
	search, ok := GetString(args, "search")
	if !ok || search == "" {
		return NewValidationError("search", "is required")
	}
	if _, ok := GetString(args, "replace"); !ok {
		return NewValidationError("replace", "is required")
	}
	return nil
}

func (t *PatchFileTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	path, _ := GetString(args, "path")
	search, _ := GetString(args, "search")
	replace, _ := GetString(args, "replace")

	summary, err := t.ws.Patch(ctx, path, search, replace)
	if err != nil {
		if github.IsNotFound(err) {
			return NewErrorResult(fmt.Sprintf("file not found: %s", path)), nil
		}
		return NewErrorResult(err.Error()), nil
	}
	return NewSuccessResult(summary), nil
}
