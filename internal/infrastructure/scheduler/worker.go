// Package scheduler runs periodic background jobs.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/fintrack/internal/usecase"
)

// Sweeper runs one pass of auto-finalization.
type Sweeper interface {
	Sweep(ctx context.Context) (usecase.SweepResult, error)
}

// Worker calls Sweep on a fixed interval.
type Worker struct {
	sweeper  Sweeper
	logger   zerolog.Logger
	interval time.Duration
	timeout  time.Duration
}

// Config for Worker. Timeout bounds a single sweep and defaults to Interval.
type Config struct {
	Sweeper  Sweeper
	Logger   zerolog.Logger
	Interval time.Duration
	Timeout  time.Duration
}

// NewWorker creates a new Worker.
func NewWorker(cfg Config) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}

	return &Worker{
		sweeper:  cfg.Sweeper,
		logger:   cfg.Logger,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
	}
}

// Start sweeps once immediately, then on every tick, until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Msg("auto-finalization worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("auto-finalization worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	started := time.Now()

	sweepCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	result, err := w.sweeper.Sweep(sweepCtx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("auto-finalization sweep failed")
		}
		return
	}

	if result.Finalized > 0 || result.Failed > 0 {
		w.logger.Info().
			Int("owners", result.Owners).
			Int("finalized", result.Finalized).
			Int("skipped", result.Skipped).
			Int("failed", result.Failed).
			Dur("took", time.Since(started)).
			Msg("auto-finalization sweep complete")
	}
}
