package scheduler

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/anto2887/prediction-league/internal/platform/logging"
	"github.com/anto2887/prediction-league/internal/usecase"
)

// Service is the timing policy the runner executes. The split keeps the loop
// dumb: it waits, runs, logs and waits again.
type Service interface {
	Enabled() bool
	RunDailySync(ctx context.Context) (usecase.DailySyncResult, error)
	RunLivePoll(ctx context.Context, force bool) (usecase.LivePollResult, error)
	NextDailyDelay(now time.Time) time.Duration
	NextLiveDelay(ctx context.Context) time.Duration
}

// Runner drives the daily schedule sync and the live poll loop in-process.
// A failing or panicking run is logged and the loop keeps going; only context
// cancellation stops it.
type Runner struct {
	svc    Service
	logger *logging.Logger
	wg     conc.WaitGroup
}

func NewRunner(svc Service, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}

	return &Runner{
		svc:    svc,
		logger: logger,
	}
}

func (r *Runner) Start(ctx context.Context) {
	if !r.svc.Enabled() {
		r.logger.Info("scheduler disabled; loops not started")
		return
	}

	r.wg.Go(func() { r.dailyLoop(ctx) })
	r.wg.Go(func() { r.liveLoop(ctx) })
	r.logger.Info("scheduler started")
}

// Wait blocks until both loops exit after context cancellation.
func (r *Runner) Wait() {
	if recovered := r.wg.WaitAndRecover(); recovered != nil {
		r.logger.Error("scheduler loop exited with panic", "panic", recovered.String())
	}
}

func (r *Runner) dailyLoop(ctx context.Context) {
	for {
		delay := r.svc.NextDailyDelay(time.Now().UTC())
		if !r.wait(ctx, delay) {
			return
		}

		recovered := panics.Try(func() {
			result, err := r.svc.RunDailySync(ctx)
			if err != nil {
				r.logger.WarnContext(ctx, "daily sync run failed", "error", err)
				return
			}
			r.logger.InfoContext(ctx, "daily sync run completed",
				"fixtures_saved", result.Sync.FixturesSaved,
				"settled", result.Settlement.Settled,
			)
		})
		if recovered != nil {
			r.logger.ErrorContext(ctx, "daily sync run panicked", "panic", recovered.String())
		}
	}
}

func (r *Runner) liveLoop(ctx context.Context) {
	for {
		delay := r.svc.NextLiveDelay(ctx)
		if !r.wait(ctx, delay) {
			return
		}

		recovered := panics.Try(func() {
			result, err := r.svc.RunLivePoll(ctx, false)
			if err != nil {
				r.logger.WarnContext(ctx, "live poll run failed", "error", err)
				return
			}
			if !result.Ran {
				r.logger.DebugContext(ctx, "live poll skipped", "reason", result.Reason)
				return
			}
			r.logger.InfoContext(ctx, "live poll run completed",
				"fixtures_saved", result.Sync.FixturesSaved,
				"settled", result.Settlement.Settled,
			)
		})
		if recovered != nil {
			r.logger.ErrorContext(ctx, "live poll run panicked", "panic", recovered.String())
		}
	}
}

func (r *Runner) wait(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		delay = time.Second
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
