package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWindowLimiterAllowsUpToLimit(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewWindowLimiter(3, time.Minute)
	limiter.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		ok, _ := limiter.tryAcquire()
		if !ok {
			t.Fatalf("acquire %d rejected below limit", i)
		}
	}

	ok, wait := limiter.tryAcquire()
	if ok {
		t.Fatal("acquire above limit should block")
	}
	if wait <= 0 || wait > time.Minute {
		t.Fatalf("unexpected wait: got=%s", wait)
	}
}

func TestWindowLimiterFreesSlotsAsWindowSlides(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewWindowLimiter(2, time.Minute)
	limiter.now = func() time.Time { return current }

	for i := 0; i < 2; i++ {
		if ok, _ := limiter.tryAcquire(); !ok {
			t.Fatalf("acquire %d rejected below limit", i)
		}
	}
	if ok, _ := limiter.tryAcquire(); ok {
		t.Fatal("window should be full")
	}

	current = current.Add(61 * time.Second)
	if ok, _ := limiter.tryAcquire(); !ok {
		t.Fatal("window slid past old stamps; acquire should pass")
	}
	if got := limiter.InFlightWindow(); got != 1 {
		t.Fatalf("unexpected in-flight count: got=%d want=%d", got, 1)
	}
}

func TestWindowLimiterHonorsProviderRemaining(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewWindowLimiter(10, time.Minute)
	limiter.now = func() time.Time { return current }

	limiter.ObserveRemaining(0)
	if ok, _ := limiter.tryAcquire(); ok {
		t.Fatal("provider reported no remaining quota; acquire should block")
	}

	current = current.Add(61 * time.Second)
	if ok, _ := limiter.tryAcquire(); !ok {
		t.Fatal("provider quota view expired with the window; acquire should pass")
	}
}

func TestWindowLimiterAcquireRespectsContext(t *testing.T) {
	t.Parallel()

	limiter := NewWindowLimiter(1, time.Minute)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Acquire(ctx); err == nil {
		t.Fatal("blocked acquire should fail once the context expires")
	}
}
