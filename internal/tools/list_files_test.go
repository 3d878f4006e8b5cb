package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitchat/internal/github"
)

func TestListFiles(t *testing.T) {
	browser := &fakeBrowser{entries: map[string][]github.Entry{
		"": {
			{Path: "README.md", Type: "file"},
			{Path: "internal", Type: "dir"},
		},
		"empty": {},
	}}
	tool := NewListFilesTool(browser)

	t.Run("marks files and directories", func(t *testing.T) {
		res, err := tool.Execute(context.Background(), map[string]any{})
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Contains(t, res.Content, "📄 README.md")
		assert.Contains(t, res.Content, "📁 internal")
	})

	t.Run("empty directory", func(t *testing.T) {
		res, err := tool.Execute(context.Background(), map[string]any{"path": "empty"})
		require.NoError(t, err)
		assert.Equal(t, "(empty)", res.Content)
	})

	t.Run("missing directory", func(t *testing.T) {
		res, err := tool.Execute(context.Background(), map[string]any{"path": "nope"})
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "directory not found: nope", res.Error)
	})
}
