package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is the scheduler's lifecycle state.
type State int32

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Stopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// CycleFunc runs one cycle and reports its failure, if any. Implementations
// must not panic.
type CycleFunc func(ctx context.Context) error

// WaitFunc blocks for d or until ctx is done, returning ctx.Err() in the latter case.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Scheduler repeats a cycle with a fixed wait between the end of one cycle
// and the start of the next. The wait is the same after failures.
type Scheduler struct {
	Cycle     CycleFunc
	Interval  time.Duration
	MaxCycles int // 0 runs until ctx is cancelled
	Wait      WaitFunc
	Logger    *zap.Logger

	state  atomic.Int32
	cycles atomic.Int64
}

func New(cycle CycleFunc, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{Cycle: cycle, Interval: interval, Logger: logger}
}

// Run drives cycles until ctx is cancelled or MaxCycles is reached, then
// moves to Stopped. Cycle failures never end the loop. It returns the number
// of cycles run.
func (s *Scheduler) Run(ctx context.Context) int {
	s.state.Store(int32(Running))
	defer s.state.Store(int32(Stopped))

	wait := s.Wait
	if wait == nil {
		wait = Sleep
	}

	s.logger().Info("scheduler started", zap.Duration("interval", s.Interval), zap.Int("max_cycles", s.MaxCycles))

	n := 0
	for ctx.Err() == nil {
		err := s.Cycle(ctx)
		n++
		s.cycles.Add(1)

		if err != nil {
			s.logger().Debug("cycle failed; retrying after interval", zap.Int("n", n), zap.Error(err))
		}
		if s.MaxCycles > 0 && n >= s.MaxCycles {
			break
		}
		if err := wait(ctx, s.Interval); err != nil {
			break
		}
	}

	s.logger().Info("scheduler stopped", zap.Int("cycles", n))
	return n
}

// State reports whether Run is in progress.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Cycles is the total number of cycles run so far.
func (s *Scheduler) Cycles() int64 {
	return s.cycles.Load()
}

// Sleep is the real-time WaitFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
