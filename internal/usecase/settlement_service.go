package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
	"github.com/anto2887/prediction-league/internal/domain/prediction"
	"github.com/anto2887/prediction-league/internal/domain/syncstatus"
	"github.com/anto2887/prediction-league/internal/platform/logging"
)

// SettlementStore commits one prediction's outcome. Implementations must mark
// the LOCKED prediction PROCESSED with the given points and increment the
// owner's (user, season) total inside a single transaction, returning false
// when the prediction was not LOCKED anymore.
type SettlementStore interface {
	SettlePrediction(ctx context.Context, predictionID string, points int, userID string, season int) (bool, error)
}

type SettlementConfig struct {
	MaxWorkers int
}

type SettlementResult struct {
	FixtureID string `json:"fixture_id"`
	Settled   int    `json:"settled"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

type SettlementRunResult struct {
	FixturesChecked int                `json:"fixtures_checked"`
	FixturesSettled int                `json:"fixtures_settled"`
	Settled         int                `json:"settled"`
	Skipped         int                `json:"skipped"`
	Failed          int                `json:"failed"`
	Fixtures        []SettlementResult `json:"fixtures,omitempty"`
}

// settlementPool is the slice of the ants pool the run loop needs.
type settlementPool interface {
	Submit(task func()) error
	Release()
}

type SettlementService struct {
	cfg            SettlementConfig
	predictionRepo prediction.Repository
	fixtureRepo    fixture.Repository
	store          SettlementStore
	statusRepo     syncstatus.Repository
	logger         *logging.Logger
	now            func() time.Time
	newPool        func(size int) (settlementPool, error)
}

func NewSettlementService(
	cfg SettlementConfig,
	predictionRepo prediction.Repository,
	fixtureRepo fixture.Repository,
	store SettlementStore,
	statusRepo syncstatus.Repository,
	logger *logging.Logger,
) *SettlementService {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 2
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &SettlementService{
		cfg:            cfg,
		predictionRepo: predictionRepo,
		fixtureRepo:    fixtureRepo,
		store:          store,
		statusRepo:     statusRepo,
		logger:         logger,
		now:            time.Now,
		newPool: func(size int) (settlementPool, error) {
			return ants.NewPool(size)
		},
	}
}

// SettleFixture awards points for every LOCKED prediction of a finished
// fixture. Each prediction commits on its own; one failure is logged and the
// rest of the fixture still settles. Re-running is a no-op because settled
// predictions are no longer LOCKED.
func (s *SettlementService) SettleFixture(ctx context.Context, fx fixture.Fixture) (SettlementResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.SettleFixture")
	defer span.End()

	if s.predictionRepo == nil || s.store == nil {
		return SettlementResult{}, fmt.Errorf("%w: settlement is not fully configured", ErrDependencyUnavailable)
	}
	if !fixture.IsFinishedStatus(fx.Status) {
		return SettlementResult{}, fmt.Errorf("%w: fixture id=%s is not finished (status=%s)", ErrInvalidInput, fx.ID, fx.Status)
	}
	if fx.HomeGoals == nil || fx.AwayGoals == nil {
		return SettlementResult{}, fmt.Errorf("%w: fixture id=%s has no final score yet", ErrInvalidInput, fx.ID)
	}

	homeGoals := *fx.HomeGoals
	awayGoals := *fx.AwayGoals

	rows, err := s.predictionRepo.ListByFixtureAndStatus(ctx, fx.ID, prediction.StatusLocked)
	if err != nil {
		return SettlementResult{}, fmt.Errorf("list locked predictions fixture=%s: %w", fx.ID, err)
	}

	result := SettlementResult{FixtureID: fx.ID}
	for _, row := range rows {
		points := PredictionPoints(row.HomeGoals, row.AwayGoals, homeGoals, awayGoals)
		settled, settleErr := s.store.SettlePrediction(ctx, row.ID, points, row.UserID, row.Season)
		if settleErr != nil {
			result.Failed++
			s.logger.WarnContext(ctx, "settle prediction failed",
				"prediction_id", row.ID,
				"fixture_id", fx.ID,
				"user_id", row.UserID,
				"error", settleErr,
			)
			continue
		}
		if !settled {
			result.Skipped++
			continue
		}
		result.Settled++
	}

	s.logger.InfoContext(ctx, "fixture settled",
		"fixture_id", fx.ID,
		"settled", result.Settled,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

// SettleFinished finds finished fixtures still holding LOCKED predictions and
// settles them through a bounded worker pool.
func (s *SettlementService) SettleFinished(ctx context.Context) (SettlementRunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SettlementService.SettleFinished")
	defer span.End()

	if s.predictionRepo == nil || s.fixtureRepo == nil || s.store == nil {
		return SettlementRunResult{}, fmt.Errorf("%w: settlement is not fully configured", ErrDependencyUnavailable)
	}

	startedAt := s.now().UTC()

	fixtureIDs, err := s.predictionRepo.ListFixtureIDsByStatus(ctx, prediction.StatusLocked)
	if err != nil {
		return SettlementRunResult{}, fmt.Errorf("list fixtures with locked predictions: %w", err)
	}

	run := SettlementRunResult{FixturesChecked: len(fixtureIDs)}
	if len(fixtureIDs) == 0 {
		s.recordRun(ctx, run, startedAt, nil)
		return run, nil
	}

	pool, err := s.newPool(s.cfg.MaxWorkers)
	if err != nil {
		return SettlementRunResult{}, fmt.Errorf("create settlement worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan SettlementResult, len(fixtureIDs))
	var settledCount, skippedCount, failedCount, fixtureCount atomic.Int32

	var submitErr error
	var workers sync.WaitGroup
	for _, fixtureID := range fixtureIDs {
		fixtureID := fixtureID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			fx, exists, getErr := s.fixtureRepo.GetByID(ctx, fixtureID)
			if getErr != nil {
				failedCount.Add(1)
				s.logger.WarnContext(ctx, "load fixture for settlement failed", "fixture_id", fixtureID, "error", getErr)
				return
			}
			if !exists || !fixture.IsFinishedStatus(fx.Status) {
				return
			}
			// No final score yet: leave the predictions LOCKED and let a
			// later run pick the fixture up again.
			if fx.HomeGoals == nil || fx.AwayGoals == nil {
				return
			}

			res, settleErr := s.SettleFixture(ctx, fx)
			if settleErr != nil {
				failedCount.Add(1)
				s.logger.WarnContext(ctx, "settle fixture failed", "fixture_id", fixtureID, "error", settleErr)
				return
			}

			fixtureCount.Add(1)
			settledCount.Add(int32(res.Settled))
			skippedCount.Add(int32(res.Skipped))
			failedCount.Add(int32(res.Failed))
			results <- res
		}); err != nil {
			// Already submitted workers keep running; wait for them below
			// so counters stop moving before the run is aggregated.
			workers.Done()
			submitErr = fmt.Errorf("submit settlement task: %w", err)
			break
		}
	}

	workers.Wait()
	close(results)

	for res := range results {
		run.Fixtures = append(run.Fixtures, res)
	}
	run.FixturesSettled = int(fixtureCount.Load())
	run.Settled = int(settledCount.Load())
	run.Skipped = int(skippedCount.Load())
	run.Failed = int(failedCount.Load())

	s.recordRun(ctx, run, startedAt, submitErr)
	if submitErr != nil {
		return run, submitErr
	}
	return run, nil
}

func (s *SettlementService) recordRun(ctx context.Context, run SettlementRunResult, startedAt time.Time, runErr error) {
	if s.statusRepo == nil {
		return
	}

	finishedAt := s.now().UTC()
	entry := syncstatus.Entry{
		SyncType:      syncstatus.TypeSettlement,
		Status:        syncstatus.StatusCompleted,
		FixturesSeen:  run.FixturesChecked,
		FixturesSaved: run.FixturesSettled,
		ItemsFailed:   run.Failed,
		Detail:        fmt.Sprintf("settled=%d skipped=%d", run.Settled, run.Skipped),
		StartedAt:     startedAt,
		FinishedAt:    &finishedAt,
	}
	if runErr != nil {
		entry.Status = syncstatus.StatusFailed
		entry.ErrorMessage = runErr.Error()
	}

	if _, err := s.statusRepo.Append(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "append settlement status failed", "error", err)
	}
}

