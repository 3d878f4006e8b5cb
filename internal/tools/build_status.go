package tools

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// BuildStatusTool reports CI check runs for the branch head. It is the
// probe tool: repeating it is how the model polls a running build.
type BuildStatusTool struct {
	browser Browser
}

// NewBuildStatusTool creates a new BuildStatusTool instance.
func NewBuildStatusTool(browser Browser) *BuildStatusTool {
	return &BuildStatusTool{browser: browser}
}

func (t *BuildStatusTool) Name() string {
	return "get_build_status"
}

func (t *BuildStatusTool) Description() string {
	return "Gets the CI check runs for the latest commit on the branch. Call again to poll a running build."
}

func (t *BuildStatusTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: map[string]*genai.Schema{},
			Required:   []string{},
		},
	}
}

func (t *BuildStatusTool) Validate(args map[string]any) error {
	return nil
}

func (t *BuildStatusTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	runs, err := t.browser.GetCheckRuns(ctx)
	if err != nil {
		return NewErrorResult(fmt.Sprintf("could not fetch check runs: %s", err)), nil
	}
	if len(runs) == 0 {
		return NewSuccessResult("No check runs for the latest commit."), nil
	}

	var builder strings.Builder
	pending := 0
	for _, run := range runs {
		if run.Status != "completed" {
			pending++
			builder.WriteString(fmt.Sprintf("%s: %s\n", run.Name, run.Status))
			continue
		}
		builder.WriteString(fmt.Sprintf("%s: %s\n", run.Name, run.Conclusion))
	}
	if pending > 0 {
		builder.WriteString(fmt.Sprintf("\n%d check(s) still running.", pending))
	}
	return NewSuccessResult(builder.String()), nil
}
