package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrepSearchPath(t *testing.T) {
	ws, _ := newTestWorkspace(map[string]string{
		"main.go": "package main\n\nfunc main() {\n\tHandleLogin()\n}\n",
	})
	tool := NewGrepSearchTool(ws, 100)

	t.Run("case-insensitive substring", func(t *testing.T) {
		res, err := tool.Execute(context.Background(), map[string]any{
			"query": "handlelogin", "path": "main.go",
		})
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Contains(t, res.Content, "4: \tHandleLogin()")
	})

	t.Run("no matches", func(t *testing.T) {
		res, err := tool.Execute(context.Background(), map[string]any{
			"query": "logout", "path": "main.go",
		})
		require.NoError(t, err)
		assert.Contains(t, res.Content, `No matches for "logout"`)
	})

	t.Run("missing file", func(t *testing.T) {
		res, err := tool.Execute(context.Background(), map[string]any{
			"query": "x", "path": "nope.go",
		})
		require.NoError(t, err)
		assert.Equal(t, "file not found: nope.go", res.Error)
	})
}

func TestGrepSearchGlob(t *testing.T) {
	ws, _ := newTestWorkspace(map[string]string{
		"a/one.go":   "match here\n",
		"a/two.txt":  "match here too\n",
		"b/three.go": "match again\n",
	})
	tool := NewGrepSearchTool(ws, 2)

	ctx := context.Background()
	// Glob mode only searches files the cache has seen.
	for _, p := range []string{"a/one.go", "a/two.txt", "b/three.go"} {
		_, err := ws.Cache().Fetch(ctx, p)
		require.NoError(t, err)
	}

	t.Run("selects cached files and prefixes paths", func(t *testing.T) {
		res, err := tool.Execute(ctx, map[string]any{"query": "match", "glob": "**/*.go"})
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Contains(t, res.Content, "a/one.go:1: match here")
		assert.Contains(t, res.Content, "b/three.go:1: match again")
		assert.NotContains(t, res.Content, "two.txt")
	})

	t.Run("caps results", func(t *testing.T) {
		res, err := tool.Execute(ctx, map[string]any{"query": "match", "glob": "**"})
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(res.Content, ":1: "))
		assert.Contains(t, res.Content, "stopped at 2 matches")
	})

	t.Run("nothing cached matches", func(t *testing.T) {
		res, err := tool.Execute(ctx, map[string]any{"query": "match", "glob": "docs/**"})
		require.NoError(t, err)
		assert.Contains(t, res.Content, "No files read so far")
	})
}

func TestGrepSearchValidate(t *testing.T) {
	ws, _ := newTestWorkspace(nil)
	tool := NewGrepSearchTool(ws, 10)

	assert.Error(t, tool.Validate(map[string]any{"path": "a.go"}))
	assert.Error(t, tool.Validate(map[string]any{"query": "x"}))
	assert.Error(t, tool.Validate(map[string]any{"query": "x", "glob": "[bad"}))
	assert.NoError(t, tool.Validate(map[string]any{"query": "x", "path": "a.go"}))
	assert.NoError(t, tool.Validate(map[string]any{"query": "x", "glob": "**/*.go"}))
}
