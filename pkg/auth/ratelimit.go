package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter checks whether a request should be allowed based on
// the identity's service tier.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// TierConfig holds rate limit settings for a service tier.
type TierConfig struct {
	RequestsPerMinute int
}

// bucketIdleTTL is how long a bucket may go unused before it is dropped.
// Every bucket refills completely within a minute, so a dropped bucket is
// indistinguishable from the fresh one that replaces it.
const bucketIdleTTL = time.Minute

// InProcessLimiter keeps one token bucket per subject and tier in memory.
// Each bucket refills at RequestsPerMinute/60 tokens per second and holds
// up to RequestsPerMinute tokens. Idle buckets are swept at most once per
// bucketIdleTTL, so memory follows the number of recently active callers.
type InProcessLimiter struct {
	tiers      map[string]TierConfig
	defaultRPM int
	now        func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewInProcessLimiter creates a rate limiter with per-tier configuration.
// A tier without configuration uses defaultRPM; zero or less disables
// limiting for it.
func NewInProcessLimiter(tiers map[string]TierConfig, defaultRPM int) *InProcessLimiter {
	return &InProcessLimiter{
		tiers:      tiers,
		defaultRPM: defaultRPM,
		now:        time.Now,
		buckets:    make(map[string]*bucket),
	}
}

// Allow takes one token from the caller's bucket.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	tier := tierOf(identity)

	rpm := l.defaultRPM
	if tc, ok := l.tiers[tier]; ok {
		rpm = tc.RequestsPerMinute
	}
	if rpm <= 0 {
		return nil
	}

	now := l.now()
	if !l.bucket(identity.Subject+":"+tier, rpm, now).AllowN(now, 1) {
		return ErrTooManyRequests
	}
	return nil
}

func (l *InProcessLimiter) bucket(key string, rpm int, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= bucketIdleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) >= bucketIdleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60), rpm)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Len returns the number of buckets currently held.
func (l *InProcessLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
