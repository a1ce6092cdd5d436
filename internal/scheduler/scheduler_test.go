package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/massvision/reap3r/internal/logging"
)

func testLogger() *logging.Logger { return logging.New(false) }

// mockClock fires After immediately, regardless of duration, so loop tests
// run instantly instead of waiting on real timers.
type mockClock struct{}

func (mockClock) Now() time.Time { return time.Unix(0, 0) }
func (mockClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Unix(0, 0).Add(d)
	return ch
}
func (mockClock) Since(t time.Time) time.Duration { return 0 }

func TestLoopTicksUntilCancelled(t *testing.T) {
	var ticks int32
	l := NewLoop("test", 0, func() time.Duration { return 0 }, func(ctx context.Context) error {
		atomic.AddInt32(&ticks, 1)
		return nil
	}, mockClock{}, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	for atomic.LoadInt32(&ticks) < 3 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if atomic.LoadInt32(&ticks) < 3 {
		t.Fatalf("ticks = %d, want >= 3", ticks)
	}
}

func TestLoopTracksConsecutiveFailures(t *testing.T) {
	var states []State
	var failures []uint32
	l := NewLoop("test", 0, func() time.Duration { return 0 }, func(ctx context.Context) error {
		return errAlways
	}, mockClock{}, testLogger(), func(name string, s State, f uint32) {
		states = append(states, s)
		failures = append(failures, f)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	for len(failures) < 4 || failures[len(failures)-1] < 2 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	foundBackoff := false
	for _, s := range states {
		if s == StateBackoff {
			foundBackoff = true
		}
	}
	if !foundBackoff {
		t.Fatal("expected at least one StateBackoff transition after a failing tick")
	}
}

func TestSchedulerRunsAllLoopsConcurrently(t *testing.T) {
	var a, b int32
	loopA := NewLoop("a", 0, func() time.Duration { return 0 }, func(ctx context.Context) error {
		atomic.AddInt32(&a, 1)
		return nil
	}, mockClock{}, testLogger(), nil)
	loopB := NewLoop("b", 0, func() time.Duration { return 0 }, func(ctx context.Context) error {
		atomic.AddInt32(&b, 1)
		return nil
	}, mockClock{}, testLogger(), nil)

	s := New(loopA, loopB)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	for atomic.LoadInt32(&a) < 2 || atomic.LoadInt32(&b) < 2 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done
}

type staticError string

func (e staticError) Error() string { return string(e) }

const errAlways = staticError("always fails")
