package tools

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewFile(t *testing.T) {
	var lines []string
	for i := 1; i <= 50; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	ws, _ := newTestWorkspace(map[string]string{
		"big.txt": strings.Join(lines, "\n"),
	})
	tool := NewViewFileTool(ws, 20)

	t.Run("default range starts at line one", func(t *testing.T) {
		res, err := tool.Execute(context.Background(), map[string]any{"path": "big.txt"})
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Contains(t, res.Content, "big.txt (lines 1-20 of 50)")
		assert.Contains(t, res.Content, "1: line 1")
		assert.Contains(t, res.Content, "20: line 20")
		assert.NotContains(t, res.Content, "21: line 21")
		assert.Contains(t, res.Content, "continue with start_line=21")
	})

	t.Run("explicit range", func(t *testing.T) {
		res, err := tool.Execute(context.Background(), map[string]any{
			"path": "big.txt", "start_line": float64(10), "end_line": float64(12),
		})
		require.NoError(t, err)
		assert.Contains(t, res.Content, "big.txt (lines 10-12 of 50)")
		assert.NotContains(t, res.Content, "truncated")
	})

	t.Run("end clamped to file length", func(t *testing.T) {
		res, err := tool.Execute(context.Background(), map[string]any{
			"path": "big.txt", "start_line": float64(45), "end_line": float64(99),
		})
		require.NoError(t, err)
		assert.Contains(t, res.Content, "big.txt (lines 45-50 of 50)")
	})

	t.Run("start past end of file", func(t *testing.T) {
		res, err := tool.Execute(context.Background(), map[string]any{
			"path": "big.txt", "start_line": float64(200),
		})
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "past the end")
	})

	t.Run("missing file", func(t *testing.T) {
		res, err := tool.Execute(context.Background(), map[string]any{"path": "nope.txt"})
		require.NoError(t, err)
		assert.Equal(t, "file not found: nope.txt", res.Error)
	})

	t.Run("validation", func(t *testing.T) {
		assert.Error(t, tool.Validate(map[string]any{}))
		assert.Error(t, tool.Validate(map[string]any{"path": "a", "start_line": float64(0)}))
		assert.NoError(t, tool.Validate(map[string]any{"path": "a"}))
	})
}
