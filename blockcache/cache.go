// Package blockcache implements the cache an SsTable consults before
// decoding a block from disk: a mapping from (sstID, blockIdx) to a shared
// *block.Block, with single-flight semantics so concurrent misses for the
// same key coalesce into exactly one load.
package blockcache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/flashlsm/lsmkit/block"
)

// Loader produces the Block for a cache miss. It must not itself consult the
// cache (no reentrancy).
type Loader func() (*block.Block, error)

// Cache is the interface sstable.SsTable.ReadBlockCached programs against.
type Cache interface {
	GetOrLoad(sstID, blockIdx uint64, load Loader) (*block.Block, error)
}

// LRU is a Cache backed by an LRU eviction policy and a singleflight group
// for at-most-once-per-key load discipline. Eviction never invalidates a
// *block.Block an iterator already holds — Go's GC keeps the block alive
// via the iterator's own reference regardless of what the cache does with
// its entry afterward.
type LRU struct {
	cache *lru.Cache[cacheKey, *block.Block]
	group singleflight.Group
}

type cacheKey struct {
	sstID    uint64
	blockIdx uint64
}

// New creates an LRU-backed cache holding up to capacity decoded blocks.
func New(capacity int) *LRU {
	c, err := lru.New[cacheKey, *block.Block](capacity)
	if err != nil {
		// Only returns an error for capacity <= 0; callers pass a constant.
		panic(err)
	}
	return &LRU{cache: c}
}

// GetOrLoad returns the cached block for (sstID, blockIdx), invoking load at
// most once per key even under concurrent callers. A load error is never
// cached and never poisons the entry.
func (c *LRU) GetOrLoad(sstID, blockIdx uint64, load Loader) (*block.Block, error) {
	key := cacheKey{sstID: sstID, blockIdx: blockIdx}
	if b, ok := c.cache.Get(key); ok {
		return b, nil
	}

	groupKey := fmt.Sprintf("%d:%d", sstID, blockIdx)
	v, err, _ := c.group.Do(groupKey, func() (any, error) {
		if b, ok := c.cache.Get(key); ok {
			return b, nil
		}
		b, err := load()
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*block.Block), nil
}
