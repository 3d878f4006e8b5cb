package repo

import (
	"context"
	"fmt"
	"sort"

	"gitchat/internal/github"
	"gitchat/internal/logging"
)

// PushResult reports a successful flush of the staged buffer.
type PushResult struct {
	CommitSHA string
	Files     []string
}

// PushError identifies which step of the commit protocol failed. The staged
// buffer is left intact so the exact same batch can be retried.
type PushError struct {
	Step string // "read_head", "create_tree", "create_commit", "update_ref"
	Err  error
}

func (e *PushError) Error() string {
	return fmt.Sprintf("push failed at %s: %v", e.Step, e.Err)
}

func (e *PushError) Unwrap() error { return e.Err }

// Push flushes every staged edit as a single commit: read the branch head,
// layer the staged entries on the head's tree, create a commit whose parent
// is the previous head, then move the branch ref. The buffer is cleared only
// after the ref moves, so a failure at any step leaves the batch retryable.
func (w *Workspace) Push(ctx context.Context, message string) (*PushResult, error) {
	w.pushMu.Lock()
	defer w.pushMu.Unlock()

	snapshot := w.staged.Snapshot()
	if len(snapshot) == 0 {
		return nil, fmt.Errorf("nothing staged to push")
	}

	head, err := w.gateway.GetBranchHead(ctx)
	if err != nil {
		return nil, &PushError{Step: "read_head", Err: err}
	}

	entries := make([]github.TreeEntry, 0, len(snapshot))
	paths := make([]string, 0, len(snapshot))
	for _, path := range sortedKeys(snapshot) {
		entries = append(entries, github.TreeEntry{
			Path:    path,
			Mode:    "100644",
			Type:    "blob",
			Content: snapshot[path],
		})
		paths = append(paths, path)
	}

	treeSHA, err := w.gateway.CreateTree(ctx, head.TreeSHA, entries)
	if err != nil {
		return nil, &PushError{Step: "create_tree", Err: err}
	}

	commitSHA, err := w.gateway.CreateCommit(ctx, message, treeSHA, head.CommitSHA)
	if err != nil {
		return nil, &PushError{Step: "create_commit", Err: err}
	}

	if err := w.gateway.UpdateRef(ctx, commitSHA); err != nil {
		return nil, &PushError{Step: "update_ref", Err: err}
	}

	w.staged.Clear()
	logging.Info("pushed staged edits", "commit", commitSHA, "files", len(paths))

	return &PushResult{CommitSHA: commitSHA, Files: paths}, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
