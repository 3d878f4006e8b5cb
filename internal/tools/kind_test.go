package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	edits := []string{"write_file", "patch_file", "patch_file_multi", "push_to_github"}
	for _, name := range edits {
		assert.Equal(t, KindEdit, KindOf(name), name)
	}

	reads := []string{"list_files", "read_file", "view_file", "grep_search", "search_code"}
	for _, name := range reads {
		assert.Equal(t, KindRead, KindOf(name), name)
	}

	assert.Equal(t, KindProbe, KindOf("get_build_status"))
	assert.Equal(t, KindLocal, KindOf("run_command"))
	assert.Equal(t, KindRead, KindOf("no_such_tool"))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "read", KindRead.String())
	assert.Equal(t, "edit", KindEdit.String())
	assert.Equal(t, "probe", KindProbe.String())
	assert.Equal(t, "local", KindLocal.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
