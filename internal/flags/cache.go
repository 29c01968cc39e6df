package flags

import (
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"ycmflags/internal/model"
)

// CachingResolver memoizes resolutions per file, honouring DoCache. The
// underlying Resolver can be replaced with Swap, which empties the cache.
//
// Lookups hold mu for reading from resolve to Add; Swap and Purge hold it
// for writing, so no result of a replaced Resolver survives a Swap.
type CachingResolver struct {
	mu      sync.RWMutex
	current atomic.Pointer[Resolver]
	cache   *lru.Cache[string, model.Resolution]
}

// NewCachingResolver wraps r with an LRU of the given size.
func NewCachingResolver(r *Resolver, size int) (*CachingResolver, error) {
	cache, err := lru.New[string, model.Resolution](size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	c := &CachingResolver{cache: cache}
	c.current.Store(r)
	return c, nil
}

// Resolver returns the resolver currently in use.
func (c *CachingResolver) Resolver() *Resolver {
	return c.current.Load()
}

// Resolve returns the cached resolution for file, resolving it on a miss.
func (c *CachingResolver) Resolve(file string) model.Resolution {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if res, ok := c.cache.Get(file); ok {
		return res
	}
	res := c.current.Load().Resolve(file)
	if res.DoCache {
		c.cache.Add(file, res)
	}
	return res
}

// ResolveFlags returns the host-contract result for file.
func (c *CachingResolver) ResolveFlags(file string) model.Result {
	return c.Resolve(file).Result
}

// Swap installs r and drops every cached result.
func (c *CachingResolver) Swap(r *Resolver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current.Store(r)
	c.cache.Purge()
}

func (c *CachingResolver) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
}

func (c *CachingResolver) Len() int { return c.cache.Len() }
