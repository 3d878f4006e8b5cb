// Package repo holds the mutable file state the agent works against: the
// last-known content cache, the staged edit buffer, the exact-match patch
// engine, and the atomic multi-file push.
package repo

import (
	"context"
	"sync"

	"gitchat/internal/github"
)

// Gateway is the subset of the GitHub client the workspace needs.
type Gateway interface {
	GetFile(ctx context.Context, path string) (*github.File, error)
	GetBranchHead(ctx context.Context) (*github.BranchHead, error)
	CreateTree(ctx context.Context, baseTree string, entries []github.TreeEntry) (string, error)
	CreateCommit(ctx context.Context, message, tree, parent string) (string, error)
	UpdateRef(ctx context.Context, commitSHA string) error
}

// Workspace owns the cache and staging state for one repository+branch.
// Sessions targeting the same repository share one Workspace, so staged
// edits are visible across conversations.
type Workspace struct {
	gateway Gateway
	cache   *ContentCache
	staged  *StagedEdits

	// pushMu serializes pushes so only one commit operation reads the
	// branch head and moves the ref at a time.
	pushMu sync.Mutex
}

// NewWorkspace creates a Workspace backed by the given gateway.
func NewWorkspace(gw Gateway) *Workspace {
	return &Workspace{
		gateway: gw,
		cache:   NewContentCache(gw),
		staged:  NewStagedEdits(),
	}
}

// Cache returns the workspace's content cache.
func (w *Workspace) Cache() *ContentCache { return w.cache }

// Staged returns the workspace's staged edit buffer.
func (w *Workspace) Staged() *StagedEdits { return w.staged }

// Stage records new content for a path and write-through updates the cache,
// so reads later in the same turn see the pending edit.
func (w *Workspace) Stage(path, content string) {
	w.staged.Put(path, content)
	w.cache.Put(path, content)
}
