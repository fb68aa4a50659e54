// Package cache holds the latest render result for serve mode.
package cache

import (
	"slices"
	"sync"
	"time"

	"weathermap/internal/model"
	"weathermap/internal/utilization"
)

// Cache is a thread-safe store for the most recent render.
type Cache struct {
	mu sync.RWMutex

	png        []byte
	loads      []utilization.LinkLoad
	problems   []model.Problem
	lastRender time.Time
}

// Snapshot is a read-only copy of the cache state.
type Snapshot struct {
	PNG        []byte
	Loads      []utilization.LinkLoad
	Problems   []model.Problem
	LastRender time.Time
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{}
}

// Update replaces the cached render wholesale.
func (c *Cache) Update(png []byte, loads []utilization.LinkLoad, problems []model.Problem, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.png = png
	c.loads = loads
	c.problems = problems
	c.lastRender = at
}

// Snapshot returns a copy of the cache contents. The PNG bytes are
// shared; callers must not mutate them.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		PNG:        c.png,
		Loads:      slices.Clone(c.loads),
		Problems:   slices.Clone(c.problems),
		LastRender: c.lastRender,
	}
}

// Empty reports whether no render has completed yet.
func (c *Cache) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.png == nil
}
