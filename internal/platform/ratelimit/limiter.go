package ratelimit

import (
	"context"
	"sync"
	"time"
)

// WindowLimiter caps the number of acquisitions inside a rolling window. It is
// used to stay under a provider's per-minute request quota on the client side,
// so the limit passed in should already include any safety margin.
type WindowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time

	// providerRemaining mirrors the quota-remaining header reported by the
	// provider; when it says fewer slots are left than we think, believe it.
	providerRemaining   int
	providerRemainingAt time.Time

	now func() time.Time
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &WindowLimiter{
		limit:             limit,
		window:            window,
		providerRemaining: -1,
		now:               time.Now,
	}
}

// Acquire blocks until a request slot frees inside the rolling window or the
// context is cancelled.
func (l *WindowLimiter) Acquire(ctx context.Context) error {
	for {
		ok, wait := l.tryAcquire()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// ObserveRemaining records the provider's own view of remaining quota for the
// current window. A value below zero is ignored.
func (l *WindowLimiter) ObserveRemaining(remaining int) {
	if remaining < 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.providerRemaining = remaining
	l.providerRemainingAt = l.now()
}

// InFlightWindow returns how many acquisitions currently count against the
// window.
func (l *WindowLimiter) InFlightWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.stamps)
}

func (l *WindowLimiter) tryAcquire() (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)

	if l.providerExhausted(now) {
		return false, l.retryAfterProvider(now)
	}
	if len(l.stamps) >= l.limit {
		return false, l.retryAfterOldest(now)
	}

	l.stamps = append(l.stamps, now)
	if l.providerRemaining > 0 {
		l.providerRemaining--
	}
	return true, 0
}

func (l *WindowLimiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	idx := 0
	for idx < len(l.stamps) && !l.stamps[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[idx:]...)
	}

	if l.providerRemaining >= 0 && now.Sub(l.providerRemainingAt) > l.window {
		l.providerRemaining = -1
	}
}

func (l *WindowLimiter) providerExhausted(now time.Time) bool {
	return l.providerRemaining == 0 && now.Sub(l.providerRemainingAt) <= l.window
}

func (l *WindowLimiter) retryAfterProvider(now time.Time) time.Duration {
	wait := l.providerRemainingAt.Add(l.window).Sub(now)
	if wait <= 0 {
		wait = time.Second
	}
	return wait
}

func (l *WindowLimiter) retryAfterOldest(now time.Time) time.Duration {
	wait := l.stamps[0].Add(l.window).Sub(now)
	if wait <= 0 {
		wait = 10 * time.Millisecond
	}
	return wait
}
