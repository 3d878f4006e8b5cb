package tools

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"gitchat/internal/github"
)

// ListFilesTool lists the contents of a repository directory at the
// working branch head.
type ListFilesTool struct {
	browser Browser
}

// NewListFilesTool creates a new ListFilesTool instance.
func NewListFilesTool(browser Browser) *ListFilesTool {
	return &ListFilesTool{browser: browser}
}

func (t *ListFilesTool) Name() string {
	return "list_files"
}

func (t *ListFilesTool) Description() string {
	return "Lists files and directories at a path in the repository. Use an empty path for the repository root."
}

func (t *ListFilesTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"path": {
					Type:        genai.TypeString,
					Description: "Directory path relative to the repository root. Empty or omitted lists the root.",
				},
			},
			Required: []string{},
		},
	}
}

func (t *ListFilesTool) Validate(args map[string]any) error {
	return nil
}

func (t *ListFilesTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	path := GetStringDefault(args, "path", "")

	entries, err := t.browser.ListDir(ctx, path)
	if err != nil {
		if github.IsNotFound(err) {
			return NewErrorResult(fmt.Sprintf("directory not found: %s", path)), nil
		}
		return NewErrorResult(fmt.Sprintf("error listing directory: %s", err)), nil
	}

	if len(entries) == 0 {
		return NewSuccessResult("(empty)"), nil
	}

	var builder strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			builder.WriteString("📁 ")
		} else {
			builder.WriteString("📄 ")
		}
		builder.WriteString(entry.Path)
		builder.WriteByte('\n')
	}

	return NewSuccessResult(builder.String()), nil
}
