package tools

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	// defaultRunCommandTimeout bounds a single command execution.
	defaultRunCommandTimeout = 60 * time.Second
	// maxRunCommandOutput caps captured output fed back to the model.
	maxRunCommandOutput = 16 * 1024
)

// RunCommandTool runs a shell command on the local machine. It is only
// registered when explicitly enabled in configuration.
type RunCommandTool struct {
	workDir string
	timeout time.Duration
}

// NewRunCommandTool creates a new RunCommandTool instance.
func NewRunCommandTool(workDir string) *RunCommandTool {
	return &RunCommandTool{workDir: workDir, timeout: defaultRunCommandTimeout}
}

func (t *RunCommandTool) Name() string {
	return "run_command"
}

func (t *RunCommandTool) Description() string {
	return "Runs a shell command on the local machine and returns its output."
}

func (t *RunCommandTool) Declaration() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"command": {
					Type:        genai.TypeString,
					Description: "The shell command to run.",
				},
			},
			Required: []string{"command"},
		},
	}
}

func (t *RunCommandTool) Validate(args map[string]any) error {
	command, ok := GetString(args, "command")
	if !ok || strings.TrimSpace(command) == "" {
		return NewValidationError("command", "is required")
	}
	return nil
}

func (t *RunCommandTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	command, _ := GetString(args, "command")

	runCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "bash", "-c", command)
	cmd.Dir = t.workDir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	text := output.String()
	if len(text) > maxRunCommandOutput {
		text = text[:maxRunCommandOutput] + "\n... (output truncated)"
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return NewErrorResult(fmt.Sprintf("command timed out after %s\n%s", t.timeout, text)), nil
	}
	if err != nil {
		return NewErrorResult(fmt.Sprintf("command failed: %s\n%s", err, text)), nil
	}
	if text == "" {
		text = "(no output)"
	}
	return NewSuccessResult(text), nil
}
