package github

import (
	"errors"
	"fmt"
)

// Entry is one item in a directory listing.
type Entry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "file" or "dir"
	Size int64  `json:"size"`
	SHA  string `json:"sha"`
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Type == "dir" }

// File is the decoded content of one repository file.
type File struct {
	Path    string
	Content string
	SHA     string // blob identifier, used for stale-write rejection
}

// TreeEntry is one path in a tree creation request.
type TreeEntry struct {
	Path    string `json:"path"`
	Mode    string `json:"mode"` // "100644" for regular files
	Type    string `json:"type"` // "blob"
	Content string `json:"content"`
}

// BranchHead is the commit a branch points at and the tree behind it.
type BranchHead struct {
	CommitSHA string
	TreeSHA   string
}

// CheckRun is one CI check attached to a commit.
type CheckRun struct {
	Name       string `json:"name"`
	Status     string `json:"status"`     // queued, in_progress, completed
	Conclusion string `json:"conclusion"` // success, failure, ...
}

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 404
}

// IsConflict reports whether err is a 409/422 from the API, which the
// git-data endpoints use for stale SHAs and rejected ref updates.
func IsConflict(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == 409 || apiErr.Status == 422
}
