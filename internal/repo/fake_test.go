package repo

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"gitchat/internal/github"
)

// fakeGateway is an in-memory Gateway with per-step failure injection.
type fakeGateway struct {
	mu    sync.Mutex
	files map[string]string

	head       github.BranchHead
	fetchCount atomic.Int64

	failGetFile    error
	failHead       error
	failCreateTree error
	failCommit     error
	failUpdateRef  error

	trees   [][]github.TreeEntry
	commits []string
	refSHA  string
}

func newFakeGateway(files map[string]string) *fakeGateway {
	if files == nil {
		files = make(map[string]string)
	}
	return &fakeGateway{
		files: files,
		head:  github.BranchHead{CommitSHA: "head-commit", TreeSHA: "head-tree"},
	}
}

func (g *fakeGateway) GetFile(ctx context.Context, path string) (*github.File, error) {
	g.fetchCount.Add(1)
	if g.failGetFile != nil {
		return nil, g.failGetFile
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	content, ok := g.files[path]
	if !ok {
		return nil, &github.APIError{Status: 404, Message: "Not Found"}
	}
	return &github.File{Path: path, Content: content, SHA: "sha-" + path}, nil
}

func (g *fakeGateway) GetBranchHead(ctx context.Context) (*github.BranchHead, error) {
	if g.failHead != nil {
		return nil, g.failHead
	}
	head := g.head
	return &head, nil
}

func (g *fakeGateway) CreateTree(ctx context.Context, baseTree string, entries []github.TreeEntry) (string, error) {
	if g.failCreateTree != nil {
		return "", g.failCreateTree
	}
	g.mu.Lock()
	g.trees = append(g.trees, entries)
	g.mu.Unlock()
	return fmt.Sprintf("tree-%d", len(g.trees)), nil
}

func (g *fakeGateway) CreateCommit(ctx context.Context, message, tree, parent string) (string, error) {
	if g.failCommit != nil {
		return "", g.failCommit
	}
	g.mu.Lock()
	g.commits = append(g.commits, message)
	g.mu.Unlock()
	return fmt.Sprintf("commit-%d", len(g.commits)), nil
}

func (g *fakeGateway) UpdateRef(ctx context.Context, commitSHA string) error {
	if g.failUpdateRef != nil {
		return g.failUpdateRef
	}
	g.mu.Lock()
	g.refSHA = commitSHA
	// The ref moved: the fake's remote state now includes the pushed tree.
	if len(g.trees) > 0 {
		for _, entry := range g.trees[len(g.trees)-1] {
			g.files[entry.Path] = entry.Content
		}
	}
	g.mu.Unlock()
	return nil
}
