package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"google.golang.org/genai"

	"gitchat/internal/github"
	"gitchat/internal/repo"
)

// GrepSearchTool finds lines matching a query inside one file, or across
// already-fetched files selected by a glob pattern.
type GrepSearchTool struct {
	ws         *repo.Workspace
	maxResults int
}

// NewGrepSearchTool creates a new GrepSearchTool instance.
func NewGrepSearchTool(ws *repo.Workspace, maxResults int) *GrepSearchTool {
	return &GrepSearchTool{ws: ws, maxResults: maxResults}
}

func (t *GrepSearchTool) Name() string {
	return "grep_search"
}

func (t *GrepSearchTool) Description() string {
	return "Finds lines containing a text query (case-insensitive) in a file. With a glob instead of a path, searches all files read so far."
}

func (t *GrepSearchTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"query": {
					Type:        genai.TypeString,
					Description: "Text to search for. Matched as a literal substring, case-insensitive.",
				},
				"path": {
					Type:        genai.TypeString,
					Description: "File path to search in.",
				},
				"glob": {
					Type:        genai.TypeString,
					Description: "Glob pattern (** supported) selecting previously read files to search instead of a single path.",
				},
			},
			Required: []string{"query"},
		},
	}
}

func (t *GrepSearchTool) Validate(args map[string]any) error {
	query, ok := GetString(args, "query")
	if !ok || query == "" {
		return NewValidationError("query", "is required")
	}
	path, _ := GetString(args, "path")
	glob, _ := GetString(args, "glob")
	if path == "" && glob == "" {
		return NewValidationError("path", "either path or glob is required")
	}
	if glob != "" {
		if !doublestar.ValidatePattern(glob) {
			return NewValidationError("glob", "invalid pattern")
		}
	}
	return nil
}

func (t *GrepSearchTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	query, _ := GetString(args, "query")
	path, _ := GetString(args, "path")
	glob, _ := GetString(args, "glob")

	var paths []string
	if path != "" {
		paths = []string{path}
	} else {
		for _, p := range t.ws.Cache().Paths() {
			if ok, _ := doublestar.Match(glob, p); ok {
				paths = append(paths, p)
			}
		}
		sort.Strings(paths)
		if len(paths) == 0 {
			return NewSuccessResult(fmt.Sprintf("No files read so far match %q. Read or search files first, or grep a specific path.", glob)), nil
		}
	}

	needle := strings.ToLower(query)
	var builder strings.Builder
	matches := 0
	capped := false

scan:
	for _, p := range paths {
		content, err := t.ws.Cache().Fetch(ctx, p)
		if err != nil {
			if github.IsNotFound(err) {
				return NewErrorResult(fmt.Sprintf("file not found: %s", p)), nil
			}
			return NewErrorResult(fmt.Sprintf("error reading %s: %s", p, err)), nil
		}

		for i, line := range strings.Split(content, "\n") {
			if !strings.Contains(strings.ToLower(line), needle) {
				continue
			}
			if matches >= t.maxResults {
				capped = true
				break scan
			}
			if len(paths) > 1 {
				builder.WriteString(fmt.Sprintf("%s:%d: %s\n", p, i+1, strings.TrimRight(line, "\r")))
			} else {
				builder.WriteString(fmt.Sprintf("%d: %s\n", i+1, strings.TrimRight(line, "\r")))
			}
			matches++
		}
	}

	if matches == 0 {
		return NewSuccessResult(fmt.Sprintf("No matches for %q.", query)), nil
	}
	if capped {
		builder.WriteString(fmt.Sprintf("\n... (stopped at %d matches, narrow the query)", t.maxResults))
	}
	return NewSuccessResult(builder.String()), nil
}
