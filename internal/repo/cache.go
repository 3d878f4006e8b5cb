package repo

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"gitchat/internal/logging"
)

// ContentCache maps repository paths to their last-known content. Reads
// populate it, stages write through it, and a failed fetch never lands in it.
type ContentCache struct {
	gateway Gateway
	mu      sync.RWMutex
	entries map[string]string
	group   singleflight.Group
}

// NewContentCache creates an empty cache reading through the gateway.
func NewContentCache(gw Gateway) *ContentCache {
	return &ContentCache{
		gateway: gw,
		entries: make(map[string]string),
	}
}

// Get returns the cached content for a path, if present.
func (c *ContentCache) Get(path string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	content, ok := c.entries[path]
	return content, ok
}

// Put records content for a path.
func (c *ContentCache) Put(path, content string) {
	c.mu.Lock()
	c.entries[path] = content
	c.mu.Unlock()
}

// Invalidate drops a path from the cache.
func (c *ContentCache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Paths returns all cached paths, in no particular order.
func (c *ContentCache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.entries))
	for path := range c.entries {
		paths = append(paths, path)
	}
	return paths
}

// Len returns the number of cached paths.
func (c *ContentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Fetch returns the content for a path, cache-first. Concurrent misses for
// the same path are collapsed into a single gateway call.
func (c *ContentCache) Fetch(ctx context.Context, path string) (string, error) {
	if content, ok := c.Get(path); ok {
		return content, nil
	}

	v, err, shared := c.group.Do(path, func() (any, error) {
		file, err := c.gateway.GetFile(ctx, path)
		if err != nil {
			return nil, err
		}
		c.Put(path, file.Content)
		return file.Content, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		logging.Debug("deduplicated concurrent fetch", "path", path)
	}
	return v.(string), nil
}
