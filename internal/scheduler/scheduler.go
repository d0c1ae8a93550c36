package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// RunFunc performs one refresh.
type RunFunc func(ctx context.Context) error

// Scheduler owns the daemon loop: one immediate refresh, then one per cron tick.
// A tick that fires while the previous refresh is still running is skipped.
type Scheduler struct {
	schedule string
	run      RunFunc
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that calls run on the given cron schedule
// (standard five-field expressions or descriptors such as "@every 6h").
func NewScheduler(schedule string, run RunFunc, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		schedule: schedule,
		run:      run,
		logger:   logger,
	}
}

// Run starts the loop and blocks until ctx is cancelled. It returns nil on
// graceful shutdown, after any in-flight refresh has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	cl := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	id, err := c.AddFunc(s.schedule, func() { s.runOnce(ctx) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", "schedule", s.schedule)

	// Run one immediate refresh.
	s.runOnce(ctx)

	c.Start()
	s.logger.Info("next refresh scheduled", "at", c.Entry(id).Next)

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.run(ctx); err != nil {
		s.logger.Error("refresh failed", "error", err)
	}
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
