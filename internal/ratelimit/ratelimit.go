// Package ratelimit provides a keyed token-bucket limiter. The SDK client
// uses it to stay polite to each storefront it talks to (one bucket per
// shop domain); the emulator uses it to hand out 429s the way the real
// platform does (one bucket per caller).
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter hands out an independent token bucket per key. The zero value is
// not usable; construct with New.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// New creates a limiter allowing rps requests per second with the given
// burst per key.
func New(rps float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

// Wait blocks until the key may proceed or the context is done. Use for
// outbound requests.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.bucket(key).Wait(ctx)
}

// Allow reports whether the key may proceed right now, consuming a token
// if so. Use for inbound request protection.
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.buckets[key]; ok {
		return b
	}
	b = rate.NewLimiter(l.limit, l.burst)
	l.buckets[key] = b
	return b
}
