package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Hunk is one literal search/replace pair.
type Hunk struct {
	Search  string
	Replace string
}

// HunkError reports why one hunk failed validation. Count is the number of
// occurrences of the search block in the original content.
type HunkError struct {
	Index int
	Count int
}

func (e *HunkError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("hunk %d: search block not found, check exact whitespace and indentation", e.Index+1)
	}
	return fmt.Sprintf("hunk %d: search block has %d occurrences, make the search block more unique", e.Index+1, e.Count)
}

// Patch applies a single literal search/replace to a file and stages the
// result. The search string must occur exactly once: zero occurrences and
// ambiguous matches both fail without staging anything.
func (w *Workspace) Patch(ctx context.Context, path, search, replace string) (string, error) {
	return w.PatchMulti(ctx, path, []Hunk{{Search: search, Replace: replace}})
}

// PatchMulti applies N hunks to one file transactionally. Every hunk is
// validated against the original content before any is applied; if any hunk
// fails, nothing is staged and the error lists every failing hunk.
func (w *Workspace) PatchMulti(ctx context.Context, path string, hunks []Hunk) (string, error) {
	if len(hunks) == 0 {
		return "", fmt.Errorf("no hunks given")
	}

	original, err := w.cache.Fetch(ctx, path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	// Validate all hunks against the original before touching anything.
	var failures []string
	for i, hunk := range hunks {
		count := strings.Count(original, hunk.Search)
		if count != 1 {
			failures = append(failures, (&HunkError{Index: i, Count: count}).Error())
		}
	}
	if len(failures) > 0 {
		return "", fmt.Errorf("patch %s rejected, no edits staged:\n%s", path, strings.Join(failures, "\n"))
	}

	updated := original
	for _, hunk := range hunks {
		updated = strings.Replace(updated, hunk.Search, hunk.Replace, 1)
	}

	w.Stage(path, updated)

	added, removed := diffLineStats(original, updated)
	return fmt.Sprintf("Patched %s (%d hunk(s), +%d/-%d lines). Staged for commit.",
		path, len(hunks), added, removed), nil
}

// diffLineStats counts added and removed lines between two versions.
func diffLineStats(before, after string) (added, removed int) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, true)
	dmp.DiffCleanupSemantic(diffs)
	for _, d := range diffs {
		lines := strings.Count(d.Text, "\n")
		if lines == 0 && len(d.Text) > 0 {
			lines = 1
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += lines
		case diffmatchpatch.DiffDelete:
			removed += lines
		}
	}
	return added, removed
}
