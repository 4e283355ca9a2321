package contact

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LoadFunc materializes the whole contact table.
type LoadFunc func(ctx context.Context) ([]Contact, error)

// Cache holds at most one snapshot of the contact table.
//
// Every Invalidate bumps the generation. A load only installs its result if
// the generation is unchanged when it finishes, so a read that overlapped a
// write can never publish pre-write rows. Concurrent cold reads of the same
// generation share one load.
type Cache struct {
	mu       sync.Mutex
	snapshot []Contact
	loaded   bool
	gen      uint64
	group    singleflight.Group
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// GetOrLoad returns the cached snapshot, calling load on a miss. On error
// nothing is cached.
func (c *Cache) GetOrLoad(ctx context.Context, load LoadFunc) ([]Contact, error) {
	c.mu.Lock()
	if c.loaded {
		rows := c.snapshot
		c.mu.Unlock()
		return rows, nil
	}
	gen := c.gen
	c.mu.Unlock()

	v, err, _ := c.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		rows, err := load(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen == gen && !c.loaded {
			c.snapshot = rows
			c.loaded = true
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Contact), nil
}

// Invalidate drops the snapshot. The next read reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.loaded = false
	c.gen++
	c.mu.Unlock()
}
