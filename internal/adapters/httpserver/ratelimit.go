package httpserver

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// MemoryLimiter mantiene un token bucket por clave en memoria del proceso.
type MemoryLimiter struct {
	mu      sync.Mutex
	perMin  int
	buckets map[string]*bucket
	ttl     time.Duration
	lastGC  time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func NewMemoryLimiter(perMin int) *MemoryLimiter {
	if perMin <= 0 {
		perMin = 60
	}
	return &MemoryLimiter{perMin: perMin, buckets: map[string]*bucket{}, ttl: 10 * time.Minute, lastGC: time.Now()}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	if now.Sub(m.lastGC) > m.ttl {
		for k, b := range m.buckets {
			if now.Sub(b.seen) > m.ttl {
				delete(m.buckets, k)
			}
		}
		m.lastGC = now
	}
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(m.perMin)), m.perMin)}
		m.buckets[key] = b
	}
	b.seen = now
	res := b.lim.ReserveN(now, 1)
	if d := res.DelayFrom(now); d > 0 {
		res.CancelAt(now)
		return false, d, nil
	}
	return true, 0, nil
}
