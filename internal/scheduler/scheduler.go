package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Runner is one full mirror pass: reconcile the playlist, then sync
// comments for its videos.
type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler re-runs the mirror pass on a fixed interval (watch mode).
type Scheduler struct {
	runner     Runner
	interval   time.Duration
	runTimeout time.Duration
	logger     *slog.Logger
}

func NewScheduler(runner Runner, interval, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner:     runner,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.run(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	if err := s.runner.Run(runCtx); err != nil && ctx.Err() == nil {
		s.logger.Error("mirror pass failed", "error", err)
	}
}
