// Package github is a typed client for the subset of the GitHub REST API the
// agent needs: contents reads, code search, check runs, and the git-data
// endpoints (trees, commits, refs) behind the atomic multi-file push.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitchat/internal/logging"
)

const defaultAPIURL = "https://api.github.com"

// Gateway performs typed operations against one repository and branch.
// It owns no state beyond request plumbing.
type Gateway struct {
	apiURL string
	repo   string // owner/name
	branch string
	token  string
	http   *http.Client
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient overrides the HTTP client (tests use httptest servers).
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.http = c }
}

// WithAPIURL overrides the API base URL.
func WithAPIURL(u string) Option {
	return func(g *Gateway) { g.apiURL = strings.TrimRight(u, "/") }
}

// New creates a Gateway for the given owner/name repository and branch.
func New(repo, branch, token string, opts ...Option) *Gateway {
	g := &Gateway{
		apiURL: defaultAPIURL,
		repo:   repo,
		branch: branch,
		token:  token,
		http:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Repo returns the owner/name the gateway is bound to.
func (g *Gateway) Repo() string { return g.repo }

// Branch returns the branch the gateway is bound to.
func (g *Gateway) Branch() string { return g.branch }

func (g *Gateway) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.apiURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Authorization", "token "+g.token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ghErr struct {
			Message string `json:"message"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = json.Unmarshal(data, &ghErr)
		if ghErr.Message == "" {
			ghErr.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: ghErr.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// ListDir lists the entries of a directory at the gateway's branch.
func (g *Gateway) ListDir(ctx context.Context, path string) ([]Entry, error) {
	var entries []Entry
	err := g.do(ctx, http.MethodGet, g.contentsPath(path), nil, &entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

type contentResponse struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// GetFile fetches and decodes one file, returning content and blob SHA.
func (g *Gateway) GetFile(ctx context.Context, path string) (*File, error) {
	var resp contentResponse
	if err := g.do(ctx, http.MethodGet, g.contentsPath(path), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Type != "file" {
		return nil, fmt.Errorf("%s is not a file (type %q)", path, resp.Type)
	}
	// The contents API wraps base64 at 60 columns.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(resp.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &File{Path: path, Content: string(raw), SHA: resp.SHA}, nil
}

// PutFile writes one file through the contents API using read-modify-write:
// sha is the blob identifier from a prior GetFile, empty for new files. The
// remote rejects the write with a conflict if the blob changed underneath.
func (g *Gateway) PutFile(ctx context.Context, path, content, sha, message string) error {
	body := map[string]any{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  g.branch,
	}
	if sha != "" {
		body["sha"] = sha
	}
	return g.do(ctx, http.MethodPut,
		fmt.Sprintf("/repos/%s/contents/%s", g.repo, escapePath(path)), body, nil)
}

// SearchCode runs a repository-scoped code search and returns matching paths.
func (g *Gateway) SearchCode(ctx context.Context, query string) ([]string, error) {
	q := url.QueryEscape(fmt.Sprintf("%s repo:%s", query, g.repo))
	var resp struct {
		Items []struct {
			Path string `json:"path"`
		} `json:"items"`
	}
	if err := g.do(ctx, http.MethodGet, "/search/code?q="+q, nil, &resp); err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		paths = append(paths, item.Path)
	}
	return paths, nil
}

// GetBranchHead reads the branch's current commit and the tree it points at.
func (g *Gateway) GetBranchHead(ctx context.Context) (*BranchHead, error) {
	var refResp struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	refPath := fmt.Sprintf("/repos/%s/git/ref/heads/%s", g.repo, g.branch)
	if err := g.do(ctx, http.MethodGet, refPath, nil, &refResp); err != nil {
		return nil, err
	}

	var commitResp struct {
		Tree struct {
			SHA string `json:"sha"`
		} `json:"tree"`
	}
	commitPath := fmt.Sprintf("/repos/%s/git/commits/%s", g.repo, refResp.Object.SHA)
	if err := g.do(ctx, http.MethodGet, commitPath, nil, &commitResp); err != nil {
		return nil, err
	}

	return &BranchHead{CommitSHA: refResp.Object.SHA, TreeSHA: commitResp.Tree.SHA}, nil
}

// CreateTree materializes a new tree layering entries on top of baseTree.
// Paths not listed are inherited from the base unchanged.
func (g *Gateway) CreateTree(ctx context.Context, baseTree string, entries []TreeEntry) (string, error) {
	body := map[string]any{
		"base_tree": baseTree,
		"tree":      entries,
	}
	var resp struct {
		SHA string `json:"sha"`
	}
	path := fmt.Sprintf("/repos/%s/git/trees", g.repo)
	if err := g.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	return resp.SHA, nil
}

// CreateCommit creates a commit object pointing at tree with parent as sole parent.
func (g *Gateway) CreateCommit(ctx context.Context, message, tree, parent string) (string, error) {
	body := map[string]any{
		"message": message,
		"tree":    tree,
		"parents": []string{parent},
	}
	var resp struct {
		SHA string `json:"sha"`
	}
	path := fmt.Sprintf("/repos/%s/git/commits", g.repo)
	if err := g.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return "", err
	}
	return resp.SHA, nil
}

// UpdateRef moves the branch reference to the given commit. Non-fast-forward
// updates are rejected by the remote, which is what makes the push atomic.
func (g *Gateway) UpdateRef(ctx context.Context, commitSHA string) error {
	body := map[string]any{"sha": commitSHA}
	path := fmt.Sprintf("/repos/%s/git/refs/heads/%s", g.repo, g.branch)
	return g.do(ctx, http.MethodPatch, path, body, nil)
}

// GetCheckRuns lists CI check runs for the branch head.
func (g *Gateway) GetCheckRuns(ctx context.Context) ([]CheckRun, error) {
	var resp struct {
		CheckRuns []CheckRun `json:"check_runs"`
	}
	path := fmt.Sprintf("/repos/%s/commits/%s/check-runs", g.repo, g.branch)
	if err := g.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	logging.Debug("fetched check runs", "repo", g.repo, "branch", g.branch, "count", len(resp.CheckRuns))
	return resp.CheckRuns, nil
}

func (g *Gateway) contentsPath(path string) string {
	return fmt.Sprintf("/repos/%s/contents/%s?ref=%s", g.repo, escapePath(path), url.QueryEscape(g.branch))
}

// escapePath escapes each path segment but keeps the separators.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
