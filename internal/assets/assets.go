// Package assets caches imported model scenes.
package assets

import (
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/ga-engine/internal/engine/importer"
	"github.com/Faultbox/ga-engine/internal/logger"
)

// Cache memoizes imports by path and post-processing flags. Concurrent imports of
// the same key share one load.
//
// Cached scenes are shared between callers and must be treated as read-only.
type Cache struct {
	next  importer.Importer
	group singleflight.Group

	mu     sync.RWMutex
	scenes map[string]*importer.Scene
	hits   int
	misses int
}

var _ importer.Importer = (*Cache)(nil)

// NewCache wraps next.
func NewCache(next importer.Importer) *Cache {
	return &Cache{
		next:   next,
		scenes: make(map[string]*importer.Scene),
	}
}

func cacheKey(path string, flags importer.Flags) string {
	return fmt.Sprintf("%s|%d", filepath.Clean(path), uint32(flags))
}

// Import returns the cached scene for path, loading it on first use.
// Failed imports are not cached. An importer that returns neither a scene nor
// an error is reported as importer.ErrNoScene.
func (c *Cache) Import(path string, flags importer.Flags) (*importer.Scene, error) {
	key := cacheKey(path, flags)

	c.mu.Lock()
	if scene, ok := c.scenes[key]; ok {
		c.hits++
		c.mu.Unlock()
		return scene, nil
	}
	c.misses++
	c.mu.Unlock()

	v, err, shared := c.group.Do(key, func() (any, error) {
		// A flight that finished between the lookup above and Do has already stored it.
		c.mu.RLock()
		scene, ok := c.scenes[key]
		c.mu.RUnlock()
		if ok {
			return scene, nil
		}

		scene, err := c.next.Import(path, flags)
		if err != nil {
			return nil, err
		}
		if scene == nil {
			return nil, importer.ErrNoScene
		}
		c.mu.Lock()
		c.scenes[key] = scene
		c.mu.Unlock()
		return scene, nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("scene cached", zap.String("path", path), zap.Bool("shared", shared))
	return v.(*importer.Scene), nil
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// Len returns the number of cached scenes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.scenes)
}

// Clear drops every cached scene and resets stats.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scenes = make(map[string]*importer.Scene)
	c.hits = 0
	c.misses = 0
}
