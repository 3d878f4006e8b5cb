package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchCode(t *testing.T) {
	ws, _ := newTestWorkspace(map[string]string{
		"auth/login.go":   "package auth\n\nfunc HandleLogin() {}\n",
		"auth/session.go": "package auth\n\n// no hits here\n",
	})

	t.Run("shows matching lines per hit", func(t *testing.T) {
		browser := &fakeBrowser{hits: []string{"auth/login.go", "auth/session.go"}}
		tool := NewSearchCodeTool(ws, browser, 5)

		res, err := tool.Execute(context.Background(), map[string]any{"query": "HandleLogin"})
		require.NoError(t, err)
		require.True(t, res.Success)
		assert.Contains(t, res.Content, `2 file(s) match "HandleLogin"`)
		assert.Contains(t, res.Content, "3: func HandleLogin() {}")
		assert.Contains(t, res.Content, "no exact line found")
	})

	t.Run("overflow reported", func(t *testing.T) {
		browser := &fakeBrowser{hits: []string{"auth/login.go", "auth/session.go"}}
		tool := NewSearchCodeTool(ws, browser, 1)

		res, err := tool.Execute(context.Background(), map[string]any{"query": "HandleLogin"})
		require.NoError(t, err)
		assert.Contains(t, res.Content, "(1 more files matched)")
		assert.NotContains(t, res.Content, "session.go")
	})

	t.Run("no hits", func(t *testing.T) {
		browser := &fakeBrowser{}
		tool := NewSearchCodeTool(ws, browser, 5)

		res, err := tool.Execute(context.Background(), map[string]any{"query": "missing"})
		require.NoError(t, err)
		assert.Contains(t, res.Content, `No files match "missing"`)
	})

	t.Run("search failure", func(t *testing.T) {
		browser := &fakeBrowser{searchErr: errors.New("rate limited")}
		tool := NewSearchCodeTool(ws, browser, 5)

		res, err := tool.Execute(context.Background(), map[string]any{"query": "x"})
		require.NoError(t, err)
		assert.Contains(t, res.Error, "search failed")
	})
}
