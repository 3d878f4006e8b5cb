package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile(t *testing.T) {
	ws, _ := newTestWorkspace(nil)
	tool := NewWriteFileTool(ws)

	res, err := tool.Execute(context.Background(), map[string]any{
		"path": "notes.md", "content": "one\ntwo\nthree",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "Wrote notes.md (3 lines). Staged for commit.", res.Content)

	// Staged content must be visible to later reads in the same turn.
	got, err := ws.Cache().Fetch(context.Background(), "notes.md")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree", got)
	assert.Equal(t, 1, ws.Staged().Len())
}

func TestWriteFileValidate(t *testing.T) {
	ws, _ := newTestWorkspace(nil)
	tool := NewWriteFileTool(ws)

	assert.Error(t, tool.Validate(map[string]any{"content": "x"}))
	assert.Error(t, tool.Validate(map[string]any{"path": "a.txt"}))
	assert.NoError(t, tool.Validate(map[string]any{"path": "a.txt", "content": ""}))
}
