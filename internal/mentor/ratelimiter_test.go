package mentor

import "testing"

func TestRateLimiterAdmitsWithinCapacityThenThrottles(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateCapacity = 3
	cfg.RateRefillPerMinute = 60 // slow enough not to refill mid-test
	rl := NewRateLimiter(cfg)

	for i := 0; i < 3; i++ {
		if ok, _ := rl.Admit("caller-a"); !ok {
			t.Fatalf("request %d was throttled, want admitted (capacity=3)", i)
		}
	}

	ok, retry := rl.Admit("caller-a")
	if ok {
		t.Fatal("request beyond capacity was admitted, want throttled")
	}
	if retry <= 0 {
		t.Errorf("retry delay = %v, want positive", retry)
	}
}

func TestRateLimiterPerCallerIsolation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateCapacity = 1
	rl := NewRateLimiter(cfg)

	if ok, _ := rl.Admit("a"); !ok {
		t.Fatal("first request from caller a was throttled")
	}
	if ok, _ := rl.Admit("b"); !ok {
		t.Fatal("caller b was throttled by caller a's bucket")
	}
	if ok, _ := rl.Admit("a"); ok {
		t.Fatal("caller a's second request was admitted, want throttled")
	}
}

func TestRateLimiterEvictsLeastRecentlyUsed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateMaxBuckets = 3
	cfg.RateRetainBuckets = 1
	rl := NewRateLimiter(cfg)

	rl.Admit("a")
	rl.Admit("b")
	rl.Admit("c")
	if got := rl.LiveBuckets(); got != 3 {
		t.Fatalf("LiveBuckets after 3 distinct callers = %d, want 3", got)
	}

	rl.Admit("d") // pushes past maxBuckets, triggers eviction down to retainBuckets
	if got := rl.LiveBuckets(); got != 1 {
		t.Fatalf("LiveBuckets after eviction = %d, want 1", got)
	}
}
