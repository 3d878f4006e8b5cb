package repo

import (
	"sort"
	"sync"
)

// StagedEdits maps repository paths to pending new content. Writes only ever
// stage; the buffer is flushed as one commit by Workspace.Push.
type StagedEdits struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewStagedEdits creates an empty buffer.
func NewStagedEdits() *StagedEdits {
	return &StagedEdits{entries: make(map[string]string)}
}

// Put stages content for a path, replacing any earlier staged content.
func (s *StagedEdits) Put(path, content string) {
	s.mu.Lock()
	s.entries[path] = content
	s.mu.Unlock()
}

// Get returns the staged content for a path, if any.
func (s *StagedEdits) Get(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.entries[path]
	return content, ok
}

// Len returns the number of staged paths.
func (s *StagedEdits) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Paths returns the staged paths in sorted order.
func (s *StagedEdits) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.entries))
	for path := range s.entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Snapshot returns a copy of the staged set.
func (s *StagedEdits) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]string, len(s.entries))
	for path, content := range s.entries {
		snap[path] = content
	}
	return snap
}

// Clear drops every staged entry.
func (s *StagedEdits) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]string)
	s.mu.Unlock()
}
