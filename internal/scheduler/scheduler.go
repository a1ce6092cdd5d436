// Package scheduler runs the agent's four independent periodic loops
// (heartbeat, metrics, inventory, job-poll), each with its own initial
// delay and cadence. A failure in one loop never affects the others —
// every loop logs, counts, and continues. Grounded on the teacher's
// internal/engine/scheduler.go (select-on-clock.After loop shape) and
// original_source/apps/agent/src/main.rs (per-loop initial-delay table and
// failure handling).
package scheduler

import (
	"context"
	"time"

	"github.com/massvision/reap3r/internal/clock"
	"github.com/massvision/reap3r/internal/logging"
)

// State is a loop's current lifecycle state, exposed for observability only
// — it never changes timing behavior (there is no real exponential
// backoff; every loop retries at its flat configured interval, matching
// original_source).
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateBackoff State = "backoff"
)

// Loop runs one periodic task with an initial delay, a cadence, and
// independent failure tracking.
type Loop struct {
	Name          string
	InitialDelay  time.Duration
	Interval      func() time.Duration
	Tick          func(ctx context.Context) error
	clock         clock.Clock
	log           *logging.Logger
	onStateChange func(loop string, state State, consecutiveFailures uint32)

	state               State
	consecutiveFailures uint32
}

// Run executes the loop until ctx is cancelled. The first tick fires after
// InitialDelay; every subsequent tick fires after Interval().
func (l *Loop) Run(ctx context.Context) {
	l.setState(StateIdle)

	select {
	case <-l.clock.After(l.InitialDelay):
	case <-ctx.Done():
		return
	}

	for {
		l.runTick(ctx)

		select {
		case <-l.clock.After(l.Interval()):
		case <-ctx.Done():
			return
		}
	}
}

func (l *Loop) runTick(ctx context.Context) {
	l.setState(StateRunning)
	err := l.Tick(ctx)
	if err != nil {
		l.consecutiveFailures++
		l.log.Warn(l.Name+" tick failed", "error", err, "consecutive_failures", l.consecutiveFailures)
		l.setState(StateBackoff)
		return
	}
	l.consecutiveFailures = 0
	l.setState(StateIdle)
}

func (l *Loop) setState(s State) {
	l.state = s
	if l.onStateChange != nil {
		l.onStateChange(l.Name, s, l.consecutiveFailures)
	}
}

// NewLoop constructs a Loop ready to Run.
func NewLoop(name string, initialDelay time.Duration, interval func() time.Duration, tick func(context.Context) error, clk clock.Clock, log *logging.Logger, onStateChange func(string, State, uint32)) *Loop {
	return &Loop{
		Name:          name,
		InitialDelay:  initialDelay,
		Interval:      interval,
		Tick:          tick,
		clock:         clk,
		log:           log,
		onStateChange: onStateChange,
	}
}

// Scheduler owns and runs the four independent loops concurrently.
type Scheduler struct {
	loops []*Loop
}

// New creates a Scheduler over the given loops.
func New(loops ...*Loop) *Scheduler {
	return &Scheduler{loops: loops}
}

// Run launches every loop in its own goroutine and blocks until ctx is
// cancelled and all loops have returned.
func (s *Scheduler) Run(ctx context.Context) {
	done := make(chan struct{}, len(s.loops))
	for _, l := range s.loops {
		loop := l
		go func() {
			loop.Run(ctx)
			done <- struct{}{}
		}()
	}
	for range s.loops {
		<-done
	}
}
