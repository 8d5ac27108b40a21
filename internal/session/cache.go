package session

import (
	"crypto/sha256"
	"fmt"
	"sync/atomic"

	"classgraph/internal/classfile"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of descriptors kept by NewDescriptorCache(0).
const DefaultCacheSize = 4096

// DescriptorCache keeps parsed descriptors keyed by the SHA-256 of the unit
// bytes, so re-importing unchanged units skips the reader. Only successfully
// parsed units are cached. It is safe for concurrent use and may be shared
// across sessions.
type DescriptorCache struct {
	entries *lru.Cache[[sha256.Size]byte, *classfile.RawClass]
	hits    atomic.Int64
	misses  atomic.Int64
}

func NewDescriptorCache(size int) (*DescriptorCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[[sha256.Size]byte, *classfile.RawClass](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create descriptor cache: %w", err)
	}
	return &DescriptorCache{entries: entries}, nil
}

// Parse returns the cached descriptor for data, parsing it on a miss. The
// returned descriptor carries unit as its unit name.
func (c *DescriptorCache) Parse(unit string, data []byte) (*classfile.RawClass, error) {
	key := sha256.Sum256(data)
	if rc, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		cp := *rc
		cp.Unit = unit
		return &cp, nil
	}
	c.misses.Add(1)

	rc, err := classfile.Parse(unit, data)
	if err != nil {
		return nil, err
	}
	c.entries.Add(key, rc)
	return rc, nil
}

func (c *DescriptorCache) Len() int { return c.entries.Len() }

// Stats returns the hit and miss counts since creation.
func (c *DescriptorCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}
