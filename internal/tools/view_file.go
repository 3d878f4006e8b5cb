package tools

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"gitchat/internal/github"
	"gitchat/internal/repo"
)

// ViewFileTool returns a numbered line range of a repository file.
type ViewFileTool struct {
	ws       *repo.Workspace
	maxLines int
}

// NewViewFileTool creates a new ViewFileTool instance.
func NewViewFileTool(ws *repo.Workspace, maxLines int) *ViewFileTool {
	return &ViewFileTool{ws: ws, maxLines: maxLines}
}

func (t *ViewFileTool) Name() string {
	return "view_file"
}

func (t *ViewFileTool) Description() string {
	return "Views a line range of a file with line numbers. Prefer this over read_file for large files."
}

func (t *ViewFileTool) Declaration() *genai.FunctionDeclaration {
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
				"start_line": {
					Type:        genai.TypeInteger,
					Description: "First line to show, 1-based. Defaults to 1.",
				},
				"end_line": {
					Type:        genai.TypeInteger,
					Description: "Last line to show, inclusive. Defaults to start_line plus the view limit.",
				},
			},
			Required: []string{"path"},
		},
	}
}

func (t *ViewFileTool) Validate(args map[string]any) error {
	path, ok := GetString(args, "path")
	if !ok || path == "" {
		return NewValidationError("path", "is required")
	}
	if start, ok := GetInt(args, "start_line"); ok && start < 1 {
		return NewValidationError("start_line", "must be at least 1")
	}
	return nil
}

func (t *ViewFileTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	path, _ := GetString(args, "path")
	start := GetIntDefault(args, "start_line", 1)
	end := GetIntDefault(args, "end_line", start+t.maxLines-1)

	content, err := t.ws.Cache().Fetch(ctx, path)
	if err != nil {
		if github.IsNotFound(err) {
			return NewErrorResult(fmt.Sprintf("file not found: %s", path)), nil
		}
		return NewErrorResult(fmt.Sprintf("error reading file: %s", err)), nil
	}

	lines := strings.Split(content, "\n")
	total := len(lines)
	if start > total {
		return NewErrorResult(fmt.Sprintf("start_line %d is past the end of %s (%d lines)", start, path, total)), nil
	}
	if end > total {
		end = total
	}
	if end < start {
		end = start
	}

	truncated := false
	if end-start+1 > t.maxLines {
		end = start + t.maxLines - 1
		truncated = true
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s (lines %d-%d of %d)\n", path, start, end, total))
	for i := start; i <= end; i++ {
		builder.WriteString(fmt.Sprintf("%d: %s\n", i, lines[i-1]))
	}
	if truncated {
		builder.WriteString(fmt.Sprintf("\n... (truncated at %d lines, continue with start_line=%d)", t.maxLines, end+1))
	}

	return NewSuccessResult(builder.String()), nil
}
