package ai

import (
	"context"
	"sync"
	"time"

	"tachi/pkg/errors"
)

const rateWindow = time.Minute

// RateLimiter gates model invocations per provider. Acquire blocks until a
// slot is available or ctx is done; it never drops a request on its own.
type RateLimiter interface {
	// Acquire blocks until a call may proceed. Returns an error wrapping
	// ErrRateLimited when ctx expires before a slot opens.
	Acquire(ctx context.Context) error
	// Limit returns the configured requests-per-minute, 0 for unlimited.
	Limit() int
}

// NoopLimiter admits every call immediately. Used when a provider has no
// configured limit, e.g. local Ollama.
type NoopLimiter struct{}

func (NoopLimiter) Acquire(ctx context.Context) error { return ctx.Err() }
func (NoopLimiter) Limit() int                        { return 0 }

// SlidingWindowLimiter enforces at most limit calls within any rolling
// one-minute window. It records the timestamp of each admitted call and
// admits a new one only once fewer than limit timestamps remain inside the
// window, so no 60-second interval ever observes more than limit admissions.
type SlidingWindowLimiter struct {
	mu     sync.Mutex
	limit  int
	stamps []time.Time
	now    func() time.Time
}

// NewSlidingWindowLimiter creates a limiter admitting limit calls per rolling
// minute. limit must be positive; use NoopLimiter for unlimited providers.
func NewSlidingWindowLimiter(limit int) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		limit:  limit,
		stamps: make([]time.Time, 0, limit),
		now:    time.Now,
	}
}

func (l *SlidingWindowLimiter) Limit() int { return l.limit }

// Acquire blocks until the rolling window has room, then records the call.
func (l *SlidingWindowLimiter) Acquire(ctx context.Context) error {
	for {
		wait, ok := l.tryAcquire()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrapf(errors.ErrRateLimited,
				"rate limit of %d req/min saturated: %v", l.limit, ctx.Err())
		case <-timer.C:
		}
	}
}

// tryAcquire admits the call if the window has room. Otherwise it returns how
// long until the oldest in-window timestamp ages out.
func (l *SlidingWindowLimiter) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-rateWindow)

	keep := 0
	for keep < len(l.stamps) && !l.stamps[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[keep:]...)
	}

	if len(l.stamps) < l.limit {
		l.stamps = append(l.stamps, now)
		return 0, true
	}

	return l.stamps[0].Sub(cutoff), false
}

// LimiterSet holds one limiter per provider, shared by all jobs in the
// process so concurrent pipelines contend for the same budget.
type LimiterSet struct {
	mu       sync.RWMutex
	limiters map[ProviderName]RateLimiter
}

// NewLimiterSet creates an empty set.
func NewLimiterSet() *LimiterSet {
	return &LimiterSet{limiters: make(map[ProviderName]RateLimiter)}
}

// Set installs the limiter for a provider.
func (s *LimiterSet) Set(name ProviderName, limiter RateLimiter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiters[name] = limiter
}

// For returns the provider's limiter, or a NoopLimiter when none is set.
func (s *LimiterSet) For(name ProviderName) RateLimiter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limiter, ok := s.limiters[name]; ok {
		return limiter
	}
	return NoopLimiter{}
}
