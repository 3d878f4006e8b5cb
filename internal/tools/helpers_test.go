package tools

import (
	"context"
	"fmt"
	"sort"

	"gitchat/internal/github"
	"gitchat/internal/repo"
)

// fakeGateway is an in-memory repo.Gateway for workspace-backed tools.
type fakeGateway struct {
	files map[string]string
	head  github.BranchHead

	pushErr error
	commits int
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

func (f *fakeGateway) GetFile(ctx context.Context, path string) (*github.File, error) {
	content, ok := f.files[path]
	if !ok {
		return nil, &github.APIError{Status: 404, Message: "Not Found"}
	}
	return &github.File{Path: path, Content: content}, nil
}

func (f *fakeGateway) GetBranchHead(ctx context.Context) (*github.BranchHead, error) {
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	head := f.head
	return &head, nil
}

func (f *fakeGateway) CreateTree(ctx context.Context, baseTree string, entries []github.TreeEntry) (string, error) {
	for _, e := range entries {
		f.files[e.Path] = e.Content
	}
	return "tree-sha", nil
}

func (f *fakeGateway) CreateCommit(ctx context.Context, message, tree, parent string) (string, error) {
	f.commits++
	return fmt.Sprintf("commit-sha-%d", f.commits), nil
}

func (f *fakeGateway) UpdateRef(ctx context.Context, commitSHA string) error {
	f.head.CommitSHA = commitSHA
	return nil
}

// fakeBrowser is an in-memory Browser for the read-side tools.
type fakeBrowser struct {
	entries map[string][]github.Entry
	hits    []string
	runs    []github.CheckRun

	searchErr error
}

func (f *fakeBrowser) ListDir(ctx context.Context, path string) ([]github.Entry, error) {
	entries, ok := f.entries[path]
	if !ok {
		return nil, &github.APIError{Status: 404, Message: "Not Found"}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (f *fakeBrowser) SearchCode(ctx context.Context, query string) ([]string, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, nil
}

func (f *fakeBrowser) GetCheckRuns(ctx context.Context) ([]github.CheckRun, error) {
	return f.runs, nil
}

func newTestWorkspace(files map[string]string) (*repo.Workspace, *fakeGateway) {
	gw := newFakeGateway(files)
	return repo.NewWorkspace(gw), gw
}
