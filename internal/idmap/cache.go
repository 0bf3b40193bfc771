package idmap

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// defaultLookupCacheCapacity/defaultReverseCacheCapacity are spec.md
// §4.3's literal figures, used when a caller doesn't override them via
// config.Options. Counted in entries, not bytes, so MaxCost doubles as
// the entry limit (cost 1 per Set).
const (
	defaultLookupCacheCapacity  = 20000
	defaultReverseCacheCapacity = 10000
)

// lookupCache memoizes ResolveTriple results. Grounded on the teacher's
// caches.go ristretto.NewCache construction (NumCounters an order of
// magnitude above MaxCost, BufferItems 64); unlike the teacher's session
// cache it never uses SetWithTTL since these mappings are permanent for
// the life of the archive, not session-scoped.
type lookupCache struct {
	c *ristretto.Cache
}

func newLookupCache(capacity int) (*lookupCache, error) {
	if capacity <= 0 {
		capacity = defaultLookupCacheCapacity
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(capacity) * 10,
		MaxCost:     int64(capacity),
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("idmap: creating lookup cache: %w", err)
	}
	return &lookupCache{c: c}, nil
}

// cacheKey flattens k into a string, since ristretto only hashes string,
// []byte, and integer keys. Each part is length-prefixed so distinct
// triples never map to the same string.
func (k tripleKey) cacheKey() string {
	return fmt.Sprintf("%d:%s%d:%s%d:%s", len(k.item), k.item, len(k.property), k.property, len(k.context), k.context)
}

func (l *lookupCache) get(key tripleKey) (Triple, bool) {
	v, ok := l.c.Get(key.cacheKey())
	if !ok {
		return Triple{}, false
	}
	return v.(Triple), true
}

func (l *lookupCache) set(key tripleKey, t Triple) {
	l.c.Set(key.cacheKey(), t, 1)
}

func (l *lookupCache) Close() {
	l.c.Close()
}

// reverseCache memoizes id->property-URI resolution used while surfacing
// rows during iteration.
type reverseCache struct {
	c *ristretto.Cache
}

func newReverseCache(capacity int) (*reverseCache, error) {
	if capacity <= 0 {
		capacity = defaultReverseCacheCapacity
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(capacity) * 10,
		MaxCost:     int64(capacity),
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("idmap: creating reverse cache: %w", err)
	}
	return &reverseCache{c: c}, nil
}

func (r *reverseCache) get(id uint64) (string, bool) {
	v, ok := r.c.Get(id)
	if !ok {
		return "", false
	}
	return v.(string), true
}

func (r *reverseCache) set(id uint64, uri string) {
	r.c.Set(id, uri, 1)
}

func (r *reverseCache) Close() {
	r.c.Close()
}
