package httpmiddleware

import (
	"context"
	"sync"
	"time"
)

// MemoryBucket is a per-key token bucket held in process memory. Each API
// replica enforces its own budget; use RedisWindow to share one.
type MemoryBucket struct {
	capacity float64
	perSec   float64
	now      func() time.Time

	mu      sync.Mutex
	buckets map[string]*tokens
}

type tokens struct {
	left float64
	seen time.Time
}

// NewMemoryBucket allows bursts of capacity and refills perMinute tokens a
// minute. perMinute <= 0 disables limiting.
func NewMemoryBucket(capacity, perMinute int) *MemoryBucket {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &MemoryBucket{
		capacity: float64(capacity),
		perSec:   float64(perMinute) / 60,
		now:      time.Now,
		buckets:  make(map[string]*tokens),
	}
}

// Allow implements Limiter.
func (b *MemoryBucket) Allow(_ context.Context, key string) (bool, error) {
	if b.perSec <= 0 {
		return true, nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	t, ok := b.buckets[key]
	if !ok {
		t = &tokens{left: b.capacity, seen: now}
		b.buckets[key] = t
	}
	if elapsed := now.Sub(t.seen).Seconds(); elapsed > 0 {
		t.left = min(b.capacity, t.left+elapsed*b.perSec)
		t.seen = now
	}
	if t.left < 1 {
		return false, nil
	}
	t.left--
	return true, nil
}
