// Package scheduler rebuilds the output when change notifications arrive.
//
// A Scheduler runs one build eagerly, then waits for notifications. The
// first notification while idle arms a debounce timer; further
// notifications re-arm the same timer, so a burst produces one rebuild.
// Notifications that arrive while a build runs are remembered and schedule
// one more rebuild once it finishes. Builds never overlap and are never
// cancelled part way through.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/conneroisu/stitch/internal/errors"
	"github.com/conneroisu/stitch/internal/logging"
)

// DefaultDebounce is the debounce window used when none is configured.
const DefaultDebounce = 100 * time.Millisecond

// State is the scheduler's current phase.
type State int32

const (
	StateIdle State = iota
	StateBuildPending
	StateBuilding
)

// String returns the string representation of the State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuildPending:
		return "build_pending"
	case StateBuilding:
		return "building"
	default:
		return "unknown"
	}
}

// BuildFunc performs one full build.
type BuildFunc func(ctx context.Context) error

// Scheduler serializes and debounces builds.
type Scheduler struct {
	build    BuildFunc
	debounce time.Duration
	logger   logging.Logger

	notify chan struct{}
	state  atomic.Int32
	builds atomic.Int64
}

// New creates a Scheduler. A non-positive debounce uses DefaultDebounce.
func New(build BuildFunc, debounce time.Duration, logger logging.Logger) *Scheduler {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &Scheduler{
		build:    build,
		debounce: debounce,
		logger:   logger.WithComponent("scheduler"),
		notify:   make(chan struct{}, 1),
	}
}

// Notify records a change. It never blocks; notifications that arrive
// before the scheduler has consumed the previous one are coalesced.
func (s *Scheduler) Notify() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// State returns the current phase.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Builds returns how many builds have run, including the initial one.
func (s *Scheduler) Builds() int64 {
	return s.builds.Load()
}

// Run builds once and then serves notifications until ctx is done. It
// returns nil on cancellation; build failures are logged and do not stop
// the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.runBuild(ctx)

	timer := time.NewTimer(s.debounce)
	stopTimer(timer)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.setState(StateIdle)
			return nil

		case <-s.notify:
			if s.State() == StateIdle {
				s.setState(StateBuildPending)
			}
			stopTimer(timer)
			timer.Reset(s.debounce)

		case <-timer.C:
			s.runBuild(ctx)
		}
	}
}

// runBuild executes one build on the loop goroutine. Notifications sent
// meanwhile sit in the buffered channel and are handled on the next loop
// iteration, which moves the scheduler back to BuildPending.
func (s *Scheduler) runBuild(ctx context.Context) {
	s.setState(StateBuilding)
	n := s.builds.Add(1)

	if err := s.build(context.WithoutCancel(ctx)); err != nil {
		errors.Report(ctx, s.logger, err, "Rebuild failed, waiting for next change")
	} else {
		s.logger.Debug(ctx, "Build finished", "build", n)
	}

	s.setState(StateIdle)
}

func (s *Scheduler) setState(state State) {
	s.state.Store(int32(state))
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
