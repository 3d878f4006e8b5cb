package tools

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"gitchat/internal/github"
	"gitchat/internal/repo"
)

// PatchFileMultiTool applies several search/replace hunks to one file as a
// unit: either all hunks apply or nothing is staged.
type PatchFileMultiTool struct {
	ws *repo.Workspace
}

// NewPatchFileMultiTool creates a new PatchFileMultiTool instance.
func NewPatchFileMultiTool(ws *repo.Workspace) *PatchFileMultiTool {
	return &PatchFileMultiTool{ws: ws}
}

func (t *PatchFileMultiTool) Name() string {
	return "patch_file_multi"
}

func (t *PatchFileMultiTool) Description() string {
	return "Applies multiple exact search/replace edits to one file atomically. If any edit fails, none are applied."
}

func (t *PatchFileMultiTool) Declaration() *genai.FunctionDeclaration {
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
				"patches": {
					Type:        genai.TypeArray,
					Description: "Edits to apply. Each search text must appear exactly once in the file.",
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"search": {
								Type:        genai.TypeString,
								Description: "Exact text to find. Literal, not a pattern.",
							},
							"replace": {
								Type:        genai.TypeString,
								Description: "Text to replace it with.",
							},
						},
						Required: []string{"search", "replace"},
					},
				},
			},
			Required: []string{"path", "patches"},
		},
	}
}

func (t *PatchFileMultiTool) Validate(args map[string]any) error {
	path, ok := GetString(args, "path")
	if !ok || path == "" {
		return NewValidationError("path", "is required")
	}
	hunks, err := parseHunks(args)
	if err != nil {
		return err
	}
	if len(hunks) == 0 {
		return NewValidationError("patches", "at least one patch is required")
	}
	return nil
}

func (t *PatchFileMultiTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	path, _ := GetString(args, "path")
	hunks, err := parseHunks(args)
	if err != nil {
		return NewErrorResult(err.Error()), nil
	}

	summary, err := t.ws.PatchMulti(ctx, path, hunks)
	if err != nil {
		if github.IsNotFound(err) {
			return NewErrorResult(fmt.Sprintf("file not found: %s", path)), nil
		}
		return NewErrorResult(err.Error()), nil
	}
	return NewSuccessResult(summary), nil
}

// parseHunks decodes the patches argument, tolerating the map shapes the
// JSON layer produces.
func parseHunks(args map[string]any) ([]repo.Hunk, error) {
	raw, ok := args["patches"]
	if !ok {
		return nil, NewValidationError("patches", "is required")
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, NewValidationError("patches", "must be an array of {search, replace} objects")
	}

	hunks := make([]repo.Hunk, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, NewValidationError("patches", fmt.Sprintf("entry %d is not an object", i+1))
		}
		search, _ := obj["search"].(string)
		replace, _ := obj["replace"].(string)
		if search == "" {
			return nil, NewValidationError("patches", fmt.Sprintf("entry %d is missing search text", i+1))
		}
		hunks = append(hunks, repo.Hunk{Search: search, Replace: replace})
	}
	return hunks, nil
}
