package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignature(t *testing.T) {
	t.Run("case, whitespace and quotes collapse", func(t *testing.T) {
		a := Signature("grep_search", map[string]any{"query": "foo", "path": "file.js"})
		b := Signature("Grep_Search", map[string]any{"query": ` "FOO" `, "path": "file.js"})
		assert.Equal(t, a, b)
	})

	t.Run("argument order does not matter", func(t *testing.T) {
		a := Signature("patch_file", map[string]any{"path": "a.go", "search": "x", "replace": "y"})
		b := Signature("patch_file", map[string]any{"replace": "y", "path": "a.go", "search": "x"})
		assert.Equal(t, a, b)
	})

	t.Run("different values differ", func(t *testing.T) {
		a := Signature("read_file", map[string]any{"path": "a.go"})
		b := Signature("read_file", map[string]any{"path": "b.go"})
		assert.NotEqual(t, a, b)
	})

	t.Run("different tools differ", func(t *testing.T) {
		a := Signature("read_file", map[string]any{"path": "a.go"})
		b := Signature("view_file", map[string]any{"path": "a.go"})
		assert.NotEqual(t, a, b)
	})

	t.Run("numbers normalize through printing", func(t *testing.T) {
		// JSON decoding yields float64; a literal int must collide with it.
		a := Signature("view_file", map[string]any{"start_line": float64(10)})
		b := Signature("view_file", map[string]any{"start_line": 10})
		assert.Equal(t, a, b)
	})
}

func TestTurnStateReserve(t *testing.T) {
	s := NewTurnState()

	assert.True(t, s.Reserve("sig-a"))
	assert.False(t, s.Reserve("sig-a"))
	assert.Equal(t, 2, s.Seen("sig-a"))

	// A failed execution releases the claim so the model may retry.
	s.Release("sig-a")
	assert.True(t, s.Reserve("sig-a"))

	assert.True(t, s.Reserve("sig-b"))
}
