package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter provides rate limiting functionality
type RateLimiter interface {
	Allow(ctx context.Context, key string) bool
	Reset(key string)
	PerMinute() int
}

// KeyedLimiter keeps one token bucket per key
type KeyedLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	perMinute int
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	now       func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter allows requestsPerMinute per key with the given burst
func NewKeyedLimiter(requestsPerMinute, burst int) *KeyedLimiter {
	if burst <= 0 {
		burst = requestsPerMinute
	}
	return &KeyedLimiter{
		buckets:   make(map[string]*bucket),
		perMinute: requestsPerMinute,
		limit:     rate.Limit(float64(requestsPerMinute) / 60),
		burst:     burst,
		idleTTL:   10 * time.Minute,
		now:       time.Now,
	}
}

// PerMinute returns the sustained request rate per key
func (l *KeyedLimiter) PerMinute() int {
	return l.perMinute
}

// Allow checks if a request is allowed and prunes idle buckets
func (l *KeyedLimiter) Allow(ctx context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		l.prune(now)
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// Reset resets the rate limit for a key
func (l *KeyedLimiter) Reset(key string) {
	l.mu.Lock()
	delete(l.buckets, key)
	l.mu.Unlock()
}

// Len reports the number of tracked keys
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *KeyedLimiter) prune(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, key)
		}
	}
}
