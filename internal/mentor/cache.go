package mentor

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// cacheElement is the LRU list payload.
type cacheElement struct {
	key   CacheKey
	entry CacheEntry
}

// ResponseCache is a TTL + LRU store keyed by a normalized request
// fingerprint. Reads are lock-free with respect to each other only in
// the sense that the single mutex is held briefly; writes are serialized
// per the documented "single-writer-per-key, many readers" discipline by
// virtue of that same mutex (a coarser but correct implementation of the
// rule — no reader can ever observe a half-written entry).
type ResponseCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int

	items map[CacheKey]*list.Element
	lru   *list.List

	hits      int64
	misses    int64
	evictions int64

	// group deduplicates concurrent generative calls for the same key so
	// only one dynamic-path miss triggers C11.generate per key at a time.
	group singleflight.Group
}

// NewResponseCache constructs a cache from Config.
func NewResponseCache(cfg Config) *ResponseCache {
	return &ResponseCache{
		ttl:      cfg.cacheTTL(),
		capacity: cfg.CacheCapacity,
		items:    make(map[CacheKey]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached response for key, or a miss if absent or
// expired. An expired entry is evicted lazily on the read that finds it.
func (c *ResponseCache) Get(key CacheKey) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return "", false
	}
	entry := elem.Value.(*cacheElement).entry
	if time.Now().After(entry.ExpiresAt) {
		c.lru.Remove(elem)
		delete(c.items, key)
		c.misses++
		return "", false
	}

	entry.HitCount++
	elem.Value.(*cacheElement).entry = entry
	c.lru.MoveToFront(elem)
	c.hits++
	return entry.Response, true
}

// Put stores value under key with the configured TTL, evicting the
// least-recently-used entry if the cache is already at capacity.
func (c *ResponseCache) Put(key CacheKey, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry := CacheEntry{
		Key:       key,
		Response:  value,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	if elem, ok := c.items[key]; ok {
		elem.Value = &cacheElement{key: key, entry: entry}
		c.lru.MoveToFront(elem)
		return
	}

	if len(c.items) >= c.capacity {
		c.evictOldest()
	}

	elem := c.lru.PushFront(&cacheElement{key: key, entry: entry})
	c.items[key] = elem
}

func (c *ResponseCache) evictOldest() {
	oldest := c.lru.Back()
	if oldest == nil {
		return
	}
	el := oldest.Value.(*cacheElement)
	c.lru.Remove(oldest)
	delete(c.items, el.key)
	c.evictions++
}

// GetOrGenerate returns a cached value for key, or calls fn exactly once
// across any number of concurrent callers racing on the same key and
// caches a successful result.
func (c *ResponseCache) GetOrGenerate(key CacheKey, fn func() (string, error)) (string, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	v, err, _ := c.group.Do(string(key), func() (interface{}, error) {
		// Re-check under the singleflight key in case a concurrent
		// caller already populated the cache while we were queued.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		result, err := fn()
		if err != nil {
			return "", err
		}
		c.Put(key, result)
		return result, nil
	})
	if err != nil {
		return "", false, err
	}
	return v.(string), false, nil
}

// CacheStats is the stats() view over size, hit rate, and eviction count.
type CacheStats struct {
	Size      int
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

func (c *ResponseCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := 0.0
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return CacheStats{
		Size:      len(c.items),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}

// DeriveCacheKey computes the deterministic digest of
// (normalized intent, normalized query prefix, sorted technology terms,
// sorted pattern tags). The derivation is pure and depends only on the
// normalized request fingerprint, never on response content, and is
// stable across processes.
func DeriveCacheKey(intent string, nq NormalizedQuery, patternTags []string, prefixWords int) CacheKey {
	words := strings.Fields(nq.Normalized)
	if prefixWords > 0 && len(words) > prefixWords {
		words = words[:prefixWords]
	}
	prefix := strings.Join(words, " ")

	terms := append([]string(nil), nq.Terms...)
	sort.Strings(terms)
	tags := append([]string(nil), patternTags...)
	sort.Strings(tags)

	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(intent))))
	h.Write([]byte{0})
	h.Write([]byte(prefix))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(terms, ",")))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(tags, ",")))

	return CacheKey(hex.EncodeToString(h.Sum(nil)))
}
