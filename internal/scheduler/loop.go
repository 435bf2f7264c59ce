package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/overlaykit/markers/internal/channel"

	"go.opentelemetry.io/otel/metric"
)

const postQueueSize = 1024

// Loop is a real-time event loop that owns a Clock.
// Clock advancement and posted work run on the single goroutine inside Run, so
// callbacks never race with each other.
type Loop struct {
	clock      *Clock
	resolution time.Duration
	posts      channel.Channel[func()]
	logger     *slog.Logger
	running    atomic.Bool

	scheduled metric.Int64Counter
	fired     metric.Int64Counter
	pending   metric.Int64ObservableGauge
}

// NewLoop creates a loop that advances its clock every resolution tick.
// Uses the global OTel meter for metrics (no-op if not configured).
func NewLoop(resolution time.Duration, logger *slog.Logger) (*Loop, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("scheduler resolution must be positive, got %s", resolution)
	}
	if logger == nil {
		logger = slog.Default()
	}

	l := &Loop{
		clock:      NewClock(),
		resolution: resolution,
		posts:      channel.New[func()](postQueueSize),
		logger:     logger,
	}

	m := meter()

	var err error

	l.scheduled, err = m.Int64Counter(
		"scheduler.callbacks.scheduled",
		metric.WithDescription("Total callbacks scheduled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating scheduled counter: %w", err)
	}

	l.fired, err = m.Int64Counter(
		"scheduler.callbacks.fired",
		metric.WithDescription("Total callbacks executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fired counter: %w", err)
	}

	l.pending, err = m.Int64ObservableGauge(
		"scheduler.callbacks.pending",
		metric.WithDescription("Callbacks waiting for their due time"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pending gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(l.pending, int64(l.clock.Pending()))
			return nil
		},
		l.pending,
	)
	if err != nil {
		return nil, fmt.Errorf("registering pending callback: %w", err)
	}

	return l, nil
}

// Clock exposes the loop's game clock.
func (l *Loop) Clock() *Clock {
	return l.clock
}

// IsRunning reports whether Run is active.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// ScheduleOnce queues fn on the loop's clock. Safe to call from any goroutine.
func (l *Loop) ScheduleOnce(delay time.Duration, fn func()) {
	if fn == nil {
		return
	}
	l.scheduled.Add(context.Background(), 1)
	l.clock.ScheduleOnce(delay, func() {
		l.fired.Add(context.Background(), 1)
		l.safeRun(fn)
	})
}

// Post queues fn to run on the loop goroutine as soon as possible.
// Returns an error if the post queue is full.
func (l *Loop) Post(fn func()) error {
	if !l.posts.TrySend(fn) {
		return fmt.Errorf("scheduler post queue full (%d)", postQueueSize)
	}
	return nil
}

// Run drives the loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler loop already running")
	}
	defer l.running.Store(false)

	ticker := time.NewTicker(l.resolution)
	defer ticker.Stop()

	last := time.Now()
	l.logger.Debug("Scheduler loop started", "resolution", l.resolution)

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("Scheduler loop stopped", "pending", l.clock.Pending())
			return ctx.Err()
		case fn := <-l.posts.Receive():
			l.safeRun(fn)
		case now := <-ticker.C:
			l.clock.Advance(now.Sub(last))
			last = now
		}
	}
}

// safeRun keeps one failing callback from taking the loop down.
func (l *Loop) safeRun(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Scheduled callback panicked", "panic", r)
		}
	}()
	fn()
}
