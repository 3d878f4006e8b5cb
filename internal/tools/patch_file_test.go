package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchFile(t *testing.T) {
	t.Run("patches and stages", func(t *testing.T) {
		ws, _ := newTestWorkspace(map[string]string{
			"main.go": "package main\n\nvar debug = false\n",
		})
		tool := NewPatchFileTool(ws)

		res, err := tool.Execute(context.Background(), map[string]any{
			"path": "main.go", "search": "var debug = false", "replace": "var debug = true",
		})
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Contains(t, res.Content, "Patched main.go")

		got, err := ws.Cache().Fetch(context.Background(), "main.go")
		require.NoError(t, err)
		assert.Contains(t, got, "var debug = true")
	})

	t.Run("rejection surfaces as a tool error", func(t *testing.T) {
		ws, _ := newTestWorkspace(map[string]string{"main.go": "x = 1\nx = 1\n"})
		tool := NewPatchFileTool(ws)

		res, err := tool.Execute(context.Background(), map[string]any{
			"path": "main.go", "search": "x = 1", "replace": "x = 2",
		})
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "no edits staged")
		assert.Equal(t, 0, ws.Staged().Len())
	})

	t.Run("missing file", func(t *testing.T) {
		ws, _ := newTestWorkspace(nil)
		tool := NewPatchFileTool(ws)

		res, err := tool.Execute(context.Background(), map[string]any{
			"path": "nope.go", "search": "a", "replace": "b",
		})
		require.NoError(t, err)
		assert.Equal(t, "file not found: nope.go", res.Error)
	})
}

func TestPatchFileMulti(t *testing.T) {
	ws, _ := newTestWorkspace(map[string]string{
		"config.yaml": "host: old\nport: 8080\n",
	})
	tool := NewPatchFileMultiTool(ws)

	res, err := tool.Execute(context.Background(), map[string]any{
		"path": "config.yaml",
		"patches": []any{
			map[string]any{"search": "host: old", "replace": "host: new"},
			map[string]any{"search": "port: 8080", "replace": "port: 9090"},
		},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Contains(t, res.Content, "2 hunk(s)")

	got, err := ws.Cache().Fetch(context.Background(), "config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "host: new\nport: 9090\n", got)
}

func TestParseHunks(t *testing.T) {
	t.Run("malformed entries rejected", func(t *testing.T) {
		_, err := parseHunks(map[string]any{"patches": []any{"not an object"}})
		assert.ErrorContains(t, err, "entry 1")

		_, err = parseHunks(map[string]any{"patches": []any{
			map[string]any{"replace": "b"},
		}})
		assert.ErrorContains(t, err, "missing search text")

		_, err = parseHunks(map[string]any{"patches": "nope"})
		assert.ErrorContains(t, err, "must be an array")
	})

	t.Run("validate requires at least one hunk", func(t *testing.T) {
		ws, _ := newTestWorkspace(nil)
		tool := NewPatchFileMultiTool(ws)
		err := tool.Validate(map[string]any{"path": "a.go", "patches": []any{}})
		assert.ErrorContains(t, err, "at least one patch")
	})
}
