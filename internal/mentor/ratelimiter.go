package mentor

import (
	"container/list"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// callerBucket pairs an x/time/rate limiter (the actual token-bucket
// implementation, grounded on the corpus's own per-caller rate limiter
// shape) with the LRU list element used for eviction bookkeeping.
type callerBucket struct {
	caller  string
	limiter *rate.Limiter
}

// RateLimiter is a per-caller token-bucket admission gate with LRU
// eviction of the bucket set, so a long-running process with many
// distinct callers over its lifetime does not grow an unbounded map.
type RateLimiter struct {
	mu            sync.Mutex
	capacity      int
	refillPerSec  float64
	maxBuckets    int
	retainBuckets int

	buckets map[string]*list.Element // caller -> element in lru
	lru     *list.List               // front = most recently used
}

// NewRateLimiter constructs a limiter from the admission parameters in
// Config.
func NewRateLimiter(cfg Config) *RateLimiter {
	return &RateLimiter{
		capacity:      cfg.RateCapacity,
		refillPerSec:  cfg.refillRate(),
		maxBuckets:    cfg.RateMaxBuckets,
		retainBuckets: cfg.RateRetainBuckets,
		buckets:       make(map[string]*list.Element),
		lru:           list.New(),
	}
}

// Admit attempts to take one token for caller. It returns true when
// admitted, or false plus a suggested retry-after duration when
// throttled. Per-caller bucket updates are atomic with respect to that
// caller; the LRU maintenance of the overall bucket set is serialized by
// the same mutex, matching the documented concurrency discipline.
func (r *RateLimiter) Admit(caller string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.bucketFor(caller)
	if b.limiter.Allow() {
		return true, 0
	}
	reservation := b.limiter.Reserve()
	delay := reservation.Delay()
	reservation.Cancel()
	return false, delay
}

func (r *RateLimiter) bucketFor(caller string) *callerBucket {
	if elem, ok := r.buckets[caller]; ok {
		r.lru.MoveToFront(elem)
		return elem.Value.(*callerBucket)
	}

	b := &callerBucket{
		caller:  caller,
		limiter: rate.NewLimiter(rate.Limit(r.refillPerSec), r.capacity),
	}
	elem := r.lru.PushFront(b)
	r.buckets[caller] = elem

	if len(r.buckets) > r.maxBuckets {
		r.evictToRetain()
	}

	return b
}

// evictToRetain drops least-recently-used buckets until the live set is
// back down to retainBuckets, once it has exceeded maxBuckets.
func (r *RateLimiter) evictToRetain() {
	for len(r.buckets) > r.retainBuckets {
		oldest := r.lru.Back()
		if oldest == nil {
			return
		}
		b := oldest.Value.(*callerBucket)
		r.lru.Remove(oldest)
		delete(r.buckets, b.caller)
	}
}

// LiveBuckets reports how many caller buckets are currently held, for
// metrics.
func (r *RateLimiter) LiveBuckets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}
