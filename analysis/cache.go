package analysis

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FeatureCache caches extracted reference-clip features across requests.
// Reference clips are reused by many submissions, and extraction is the most
// expensive pipeline stage, so recomputing per request is pure waste.
//
// Keys include the extraction parameter version: cached features extracted
// under old parameters must never be compared against fresh ones, so a
// parameter change silently misses every old entry. Population is
// at-most-once-per-key via singleflight.
type FeatureCache struct {
	mu      sync.RWMutex
	entries map[string]*FeatureSequence
	group   singleflight.Group
}

// NewFeatureCache creates an empty cache
func NewFeatureCache() *FeatureCache {
	return &FeatureCache{
		entries: make(map[string]*FeatureSequence),
	}
}

func cacheKey(clipID, paramsVersion string) string {
	return fmt.Sprintf("%s@%s", clipID, paramsVersion)
}

// GetOrCompute returns the cached features for a clip or computes and stores
// them. Concurrent callers for the same key share one computation. The
// returned sequence is shared and must be treated as immutable.
func (c *FeatureCache) GetOrCompute(ctx context.Context, clipID, paramsVersion string,
	compute func(ctx context.Context) (*FeatureSequence, error)) (*FeatureSequence, error) {

	key := cacheKey(clipID, paramsVersion)

	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check: another flight may have populated the entry between
		// the read above and this call
		c.mu.RLock()
		cached, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		seq, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = seq
		c.mu.Unlock()
		return seq, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*FeatureSequence), nil
}

// Invalidate drops every entry for a clip regardless of parameter version,
// for when a reference clip's audio is replaced.
func (c *FeatureCache) Invalidate(clipID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if len(key) > len(clipID) && key[:len(clipID)] == clipID && key[len(clipID)] == '@' {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of cached entries
func (c *FeatureCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
