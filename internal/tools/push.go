package tools

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"gitchat/internal/repo"
)

// PushTool flushes all staged edits to the remote branch as one commit.
type PushTool struct {
	ws *repo.Workspace
}

// NewPushTool creates a new PushTool instance.
func NewPushTool(ws *repo.Workspace) *PushTool {
	return &PushTool{ws: ws}
}

func (t *PushTool) Name() string {
	return "push_to_github"
}

func (t *PushTool) Description() string {
	return "Commits all staged file changes to the branch as a single commit and pushes it."
}

func (t *PushTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"message": {
					Type:        genai.TypeString,
					Description: "Commit message describing the change.",
				},
			},
			Required: []string{"message"},
		},
	}
}

func (t *PushTool) Validate(args map[string]any) error {
	msg, ok := GetString(args, "message")
	if !ok || strings.TrimSpace(msg) == "" {
		return NewValidationError("message", "is required")
	}
	return nil
}

func (t *PushTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	message, _ := GetString(args, "message")

	result, err := t.ws.Push(ctx, message)
	if err != nil {
		return NewErrorResult(fmt.Sprintf("push failed: %s. Staged edits are preserved, fix the problem and push again.", err)), nil
	}

	short := result.CommitSHA
	if len(short) > 7 {
		short = short[:7]
	}
	return NewSuccessResult(fmt.Sprintf("Pushed commit %s with %d file(s): %s",
		short, len(result.Files), strings.Join(result.Files, ", "))), nil
}
