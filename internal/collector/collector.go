package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketpulse/internal/market"
	"marketpulse/internal/metrics"
	"marketpulse/internal/snapshot"
	"marketpulse/internal/stats"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fetcher produces one snapshot per call.
type Fetcher interface {
	Fetch(ctx context.Context) (snapshot.LoadResult, error)
}

// LiveTable mirrors a full snapshot into a persistent table.
type LiveTable interface {
	Name() string
	Replace(ctx context.Context, snap market.Snapshot) error
}

// ReportSink persists the derived statistics.
type ReportSink interface {
	Name() string
	Publish(ctx context.Context, st stats.Statistics) error
}

// Outcome describes one cycle. It is not persisted.
type Outcome struct {
	ID        string
	Success   bool
	Err       error
	StartedAt time.Time
	Duration  time.Duration
	Assets    int
}

// Collector runs the fetch -> derive -> publish cycle.
type Collector struct {
	Fetcher Fetcher
	Table   LiveTable
	Report  ReportSink
	TopK    int
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// Now defaults to time.Now.
	Now func() time.Time
}

// RunCycle performs one full iteration and never panics. Fetch and
// statistics failures end the cycle before anything is published; once
// statistics exist both sinks run, and their errors are joined.
func (c *Collector) RunCycle(ctx context.Context) (out Outcome) {
	out = Outcome{ID: uuid.NewString(), StartedAt: c.now()}
	log := c.logger().With(zap.String("cycle", out.ID))

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("cycle panicked: %v", r)
		}
		out.Success = out.Err == nil
		out.Duration = c.now().Sub(out.StartedAt)
		c.Metrics.CycleDone(out.Success, out.StartedAt, out.Duration)

		if out.Success {
			log.Info("Data updated. Waiting for next update...",
				zap.Int("assets", out.Assets), zap.Duration("took", out.Duration))
		} else {
			log.Warn("cycle failed", zap.Error(out.Err), zap.Duration("took", out.Duration))
		}
	}()

	res, err := c.Fetcher.Fetch(ctx)
	if err != nil {
		out.Err = err
		return out
	}
	out.Assets = res.Snapshot.Len()
	c.Metrics.SnapshotLoaded(out.Assets, res.Dropped)

	st, err := stats.Compute(res.Snapshot, c.TopK)
	if err != nil {
		out.Err = err
		return out
	}

	out.Err = errors.Join(
		c.publish(log, c.Table.Name(), func() error { return c.Table.Replace(ctx, res.Snapshot) }),
		c.publish(log, c.Report.Name(), func() error { return c.Report.Publish(ctx, st) }),
	)
	return out
}

// publish runs one sink, converting a panic into a PublishError so the
// other sink still runs.
func (c *Collector) publish(log *zap.Logger, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &market.PublishError{Sink: name, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			c.Metrics.SinkFailed(name)
			log.Warn("sink failed", zap.String("sink", name), zap.Error(err))
		}
	}()
	return fn()
}

func (c *Collector) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Collector) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Cycle adapts RunCycle to scheduler.CycleFunc.
func (c *Collector) Cycle(ctx context.Context) error {
	return c.RunCycle(ctx).Err
}
