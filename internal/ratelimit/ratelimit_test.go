package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestFixedWindow_SixInstantCalls(t *testing.T) {
	clock := newFakeClock()
	l := NewFixedWindow(WithClock(clock.Now))

	want := []bool{true, true, true, true, true, false}
	for i, w := range want {
		if got := l.Check("x", 5, 60*time.Second); got != w {
			t.Fatalf("call %d: want %v, got %v", i+1, w, got)
		}
	}
}

func TestFixedWindow_RejectDoesNotIncrement(t *testing.T) {
	clock := newFakeClock()
	l := NewFixedWindow(WithClock(clock.Now))

	for i := 0; i < 2; i++ {
		l.Check("k", 2, time.Minute)
	}
	for i := 0; i < 5; i++ {
		if l.Check("k", 2, time.Minute) {
			t.Fatalf("call beyond max must be rejected")
		}
	}
	if e := l.entries["k"]; e.count != 2 {
		t.Fatalf("count: want 2, got %d", e.count)
	}
}

func TestFixedWindow_ResetsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	l := NewFixedWindow(WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		if !l.Check("k", 3, time.Minute) {
			t.Fatalf("call %d should be admitted", i+1)
		}
	}
	if l.Check("k", 3, time.Minute) {
		t.Fatalf("4th call should be rejected")
	}

	clock.Advance(59 * time.Second)
	if l.Check("k", 3, time.Minute) {
		t.Fatalf("still inside the window")
	}

	// Pile sur resetAt : la fenêtre est écoulée.
	clock.Advance(time.Second)
	if !l.Check("k", 3, time.Minute) {
		t.Fatalf("call at resetAt should start a new window")
	}
	if e := l.entries["k"]; e.count != 1 || !e.resetAt.Equal(clock.Now().Add(time.Minute)) {
		t.Fatalf("window not reset: count=%d resetAt=%v", e.count, e.resetAt)
	}
}

func TestFixedWindow_KeysAreIndependent(t *testing.T) {
	l := NewFixedWindow(WithClock(newFakeClock().Now))
	if !l.Check("a", 1, time.Minute) || !l.Check("b", 1, time.Minute) {
		t.Fatalf("distinct keys must not share a counter")
	}
	if l.Check("a", 1, time.Minute) {
		t.Fatalf("a should be saturated")
	}
}

func TestFixedWindow_BoundaryBurstIsAllowed(t *testing.T) {
	clock := newFakeClock()
	l := NewFixedWindow(WithClock(clock.Now))

	admitted := 0
	clock.Advance(59 * time.Second)
	for i := 0; i < 5; i++ {
		if l.Check("k", 5, time.Minute) {
			admitted++
		}
	}
	clock.Advance(time.Minute)
	for i := 0; i < 5; i++ {
		if l.Check("k", 5, time.Minute) {
			admitted++
		}
	}
	// Approximation connue de la fenêtre fixe.
	if admitted != 10 {
		t.Fatalf("want 10 admissions across the boundary, got %d", admitted)
	}
}

func TestFixedWindow_SweepsExpiredEntries(t *testing.T) {
	clock := newFakeClock()
	l := NewFixedWindow(WithClock(clock.Now), WithMaxKeys(10))

	for i := 0; i < 11; i++ {
		l.Check(fmt.Sprintf("old-%d", i), 1, time.Second)
	}
	if l.Len() != 11 {
		t.Fatalf("Len: want 11, got %d", l.Len())
	}

	clock.Advance(2 * time.Second)
	l.Check("fresh", 1, time.Minute)
	if l.Len() != 1 {
		t.Fatalf("expired entries should be swept, Len=%d", l.Len())
	}
}

func TestFixedWindow_NoSweepBelowCeiling(t *testing.T) {
	clock := newFakeClock()
	l := NewFixedWindow(WithClock(clock.Now), WithMaxKeys(10))
	for i := 0; i < 5; i++ {
		l.Check(fmt.Sprintf("k-%d", i), 1, time.Second)
	}
	clock.Advance(2 * time.Second)
	l.Check("other", 1, time.Minute)
	if l.Len() != 6 {
		t.Fatalf("Len: want 6, got %d", l.Len())
	}
}

func TestFixedWindow_ConcurrentChecksNeverOvershoot(t *testing.T) {
	l := NewFixedWindow()

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if l.Check("shared", 25, time.Hour) {
					admitted.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	if admitted.Load() != 25 {
		t.Fatalf("want exactly 25 admissions, got %d", admitted.Load())
	}
}

func TestFixedWindow_AllowUsesConfiguredLimit(t *testing.T) {
	l := NewFixedWindow(WithClock(newFakeClock().Now), WithLimit(2, time.Minute))
	if !l.Allow("ip") || !l.Allow("ip") {
		t.Fatalf("first two calls should be admitted")
	}
	if l.Allow("ip") {
		t.Fatalf("third call should be rejected")
	}
}

func TestFixedWindow_DegenerateLimits(t *testing.T) {
	l := NewFixedWindow()
	if l.Check("k", 0, time.Minute) {
		t.Fatalf("max=0 must reject")
	}
	for i := 0; i < 100; i++ {
		if !l.Check("k", 1, 0) {
			t.Fatalf("window=0 must admit")
		}
	}
}
