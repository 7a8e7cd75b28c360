package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
	"github.com/anto2887/prediction-league/internal/platform/logging"
)

type SchedulerConfig struct {
	Enabled          bool
	DailySyncHourUTC int
	LiveInterval     time.Duration
	PreKickoffLead   time.Duration
	IdleInterval     time.Duration
}

func (cfg SchedulerConfig) withDefaults() SchedulerConfig {
	if cfg.DailySyncHourUTC < 0 || cfg.DailySyncHourUTC > 23 {
		cfg.DailySyncHourUTC = 8
	}
	if cfg.LiveInterval <= 0 {
		cfg.LiveInterval = 5 * time.Minute
	}
	if cfg.PreKickoffLead <= 0 {
		cfg.PreKickoffLead = 15 * time.Minute
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = time.Hour
	}
	return cfg
}

type scheduleSyncRunner interface {
	SyncSchedule(ctx context.Context, leagueID string, date time.Time) (SyncResult, error)
	SyncLive(ctx context.Context, leagueID string) (SyncResult, error)
}

type settlementRunner interface {
	SettleFinished(ctx context.Context) (SettlementRunResult, error)
}

type DailySyncResult struct {
	Sync       SyncResult          `json:"sync"`
	Settlement SettlementRunResult `json:"settlement"`
}

type LivePollResult struct {
	Ran        bool                `json:"ran"`
	Reason     string              `json:"reason,omitempty"`
	Sync       SyncResult          `json:"sync"`
	Settlement SettlementRunResult `json:"settlement"`
}

// SchedulerService decides when sync and settlement runs happen. The actual
// loop lives in internal/scheduler; this service keeps the timing policy
// testable without timers.
type SchedulerService struct {
	cfg         SchedulerConfig
	syncRunner  scheduleSyncRunner
	settlement  settlementRunner
	fixtureRepo fixture.Repository
	logger      *logging.Logger
	now         func() time.Time
}

func NewSchedulerService(
	cfg SchedulerConfig,
	syncRunner scheduleSyncRunner,
	settlement settlementRunner,
	fixtureRepo fixture.Repository,
	logger *logging.Logger,
) *SchedulerService {
	if logger == nil {
		logger = logging.Default()
	}

	return &SchedulerService{
		cfg:         cfg.withDefaults(),
		syncRunner:  syncRunner,
		settlement:  settlement,
		fixtureRepo: fixtureRepo,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *SchedulerService) Enabled() bool {
	return s.cfg.Enabled
}

// RunDailySync refreshes today's schedule for every tracked league and then
// settles anything that finished while the service was not watching.
func (s *SchedulerService) RunDailySync(ctx context.Context) (DailySyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.RunDailySync")
	defer span.End()

	if s.syncRunner == nil {
		return DailySyncResult{}, fmt.Errorf("%w: scheduler is not fully configured", ErrDependencyUnavailable)
	}

	result := DailySyncResult{}
	syncResult, err := s.syncRunner.SyncSchedule(ctx, "", s.now().UTC())
	result.Sync = syncResult
	if err != nil {
		return result, fmt.Errorf("daily schedule sync: %w", err)
	}

	if s.settlement != nil {
		settlementResult, settleErr := s.settlement.SettleFinished(ctx)
		result.Settlement = settlementResult
		if settleErr != nil {
			return result, fmt.Errorf("settle after daily sync: %w", settleErr)
		}
	}

	return result, nil
}

// RunLivePoll refreshes live fixtures, but only when something is live or a
// kickoff is imminent; force overrides the check.
func (s *SchedulerService) RunLivePoll(ctx context.Context, force bool) (LivePollResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SchedulerService.RunLivePoll")
	defer span.End()

	if s.syncRunner == nil {
		return LivePollResult{}, fmt.Errorf("%w: scheduler is not fully configured", ErrDependencyUnavailable)
	}

	if !force {
		hasLive, nearestUpcoming, err := s.analyzeFixtures(ctx)
		if err != nil {
			return LivePollResult{}, err
		}
		if !hasLive && !s.kickoffImminent(nearestUpcoming) {
			return LivePollResult{Ran: false, Reason: "no live or imminent fixtures"}, nil
		}
	}

	result := LivePollResult{Ran: true}
	syncResult, err := s.syncRunner.SyncLive(ctx, "")
	result.Sync = syncResult
	if err != nil {
		return result, fmt.Errorf("live sync: %w", err)
	}

	if s.settlement != nil {
		settlementResult, settleErr := s.settlement.SettleFinished(ctx)
		result.Settlement = settlementResult
		if settleErr != nil {
			return result, fmt.Errorf("settle after live poll: %w", settleErr)
		}
	}

	return result, nil
}

// NextDailyDelay returns the wait until the next configured daily sync hour.
func (s *SchedulerService) NextDailyDelay(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.cfg.DailySyncHourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

// NextLiveDelay returns the wait before the next live poll: the live interval
// while matches are in play or imminent, the gap to the next kickoff lead
// when one is known, the idle interval otherwise.
func (s *SchedulerService) NextLiveDelay(ctx context.Context) time.Duration {
	hasLive, nearestUpcoming, err := s.analyzeFixtures(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "analyze fixtures for live delay failed", "error", err)
		return s.cfg.LiveInterval
	}

	if hasLive || s.kickoffImminent(nearestUpcoming) {
		return s.cfg.LiveInterval
	}
	if nearestUpcoming != nil {
		delay := nearestUpcoming.Sub(s.now().UTC()) - s.cfg.PreKickoffLead
		if delay < s.cfg.LiveInterval {
			return s.cfg.LiveInterval
		}
		if delay > s.cfg.IdleInterval {
			return s.cfg.IdleInterval
		}
		return delay
	}
	return s.cfg.IdleInterval
}

func (s *SchedulerService) analyzeFixtures(ctx context.Context) (bool, *time.Time, error) {
	if s.fixtureRepo == nil {
		return false, nil, fmt.Errorf("%w: fixture repository is not configured", ErrDependencyUnavailable)
	}

	now := s.now().UTC()
	items, err := s.fixtureRepo.ListByKickoffRange(ctx, now.Add(-8*time.Hour), now.Add(36*time.Hour))
	if err != nil {
		return false, nil, fmt.Errorf("list fixtures around now: %w", err)
	}

	hasLive := false
	var nearestUpcoming *time.Time
	for _, item := range items {
		if fixture.IsLiveStatus(item.Status) {
			hasLive = true
			continue
		}
		if fixture.NormalizeStatus(item.Status) != fixture.StatusNotStarted {
			continue
		}
		if item.KickoffAt.IsZero() || item.KickoffAt.Before(now) {
			continue
		}
		if nearestUpcoming == nil || item.KickoffAt.Before(*nearestUpcoming) {
			kickoff := item.KickoffAt
			nearestUpcoming = &kickoff
		}
	}

	return hasLive, nearestUpcoming, nil
}

func (s *SchedulerService) kickoffImminent(nearestUpcoming *time.Time) bool {
	if nearestUpcoming == nil {
		return false
	}
	return nearestUpcoming.Sub(s.now().UTC()) <= s.cfg.PreKickoffLead
}
