package tools

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"gitchat/internal/repo"
)

// maxSearchLinesPerHit caps the exact-line expansion per matched file.
const maxSearchLinesPerHit = 10

// SearchCodeTool runs a repository-wide text search, then greps the top
// hits for the exact matching lines.
type SearchCodeTool struct {
	ws      *repo.Workspace
	browser Browser
	topHits int
}

// NewSearchCodeTool creates a new SearchCodeTool instance.
func NewSearchCodeTool(ws *repo.Workspace, browser Browser, topHits int) *SearchCodeTool {
	return &SearchCodeTool{ws: ws, browser: browser, topHits: topHits}
}

func (t *SearchCodeTool) Name() string {
	return "search_code"
}

func (t *SearchCodeTool) Description() string {
	return "Searches the whole repository for a text query and shows the matching lines of the top hits."
}

func (t *SearchCodeTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {
					Type:        genai.TypeString,
					Description: "Text to search for across the repository.",
				},
			},
			Required: []string{"query"},
		},
	}
}

func (t *SearchCodeTool) Validate(args map[string]any) error {
	query, ok := GetString(args, "query")
	if !ok || query == "" {
		return NewValidationError("query", "is required")
	}
	return nil
}

func (t *SearchCodeTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	query, _ := GetString(args, "query")

	paths, err := t.browser.SearchCode(ctx, query)
	if err != nil {
		return NewErrorResult(fmt.Sprintf("search failed: %s", err)), nil
	}
	if len(paths) == 0 {
		return NewSuccessResult(fmt.Sprintf("No files match %q.", query)), nil
	}

	total := len(paths)
	if len(paths) > t.topHits {
		paths = paths[:t.topHits]
	}

	needle := strings.ToLower(query)
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%d file(s) match %q:\n", total, query))

	for _, path := range paths {
		builder.WriteString("\n" + path + "\n")
		content, err := t.ws.Cache().Fetch(ctx, path)
		if err != nil {
			builder.WriteString(fmt.Sprintf("  (could not read: %s)\n", err))
			continue
		}
		shown := 0
		for i, line := range strings.Split(content, "\n") {
			if !strings.Contains(strings.ToLower(line), needle) {
				continue
			}
			if shown >= maxSearchLinesPerHit {
				builder.WriteString("  ...\n")
				break
			}
			builder.WriteString(fmt.Sprintf("  %d: %s\n", i+1, strings.TrimSpace(line)))
			shown++
		}
		// The search index can trail the branch head or match file names.
		if shown == 0 {
			builder.WriteString("  (matched, but no exact line found at the current head)\n")
		}
	}

	if total > t.topHits {
		builder.WriteString(fmt.Sprintf("\n... (%d more files matched)", total-t.topHits))
	}

	return NewSuccessResult(builder.String()), nil
}
