package geocode

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// cacheKey returns SHA-256 hex of the normalized address for cache lookup.
func cacheKey(addr AddressInput) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(addr.OneLine()), " "))
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// memoryCache remembers answers for the lifetime of the process. Batch files
// often list the same site more than once.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]Result
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]Result)}
}

func (c *memoryCache) get(key string) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return &r, true
}

// put stores a result. Cached non-matches skip the upstream call too.
func (c *memoryCache) put(key string, r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = *r
	zap.L().Debug("geocode: cached result",
		zap.String("key", key[:12]),
		zap.Bool("matched", r.Matched),
	)
}

func (c *memoryCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
