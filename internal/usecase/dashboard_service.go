package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
	"github.com/anto2887/prediction-league/internal/domain/prediction"
	"github.com/anto2887/prediction-league/internal/domain/syncstatus"
)

type SyncTypeStatus struct {
	SyncType      string     `json:"sync_type"`
	Status        string     `json:"status"`
	FixturesSeen  int        `json:"fixtures_seen"`
	FixturesSaved int        `json:"fixtures_saved"`
	ItemsFailed   int        `json:"items_failed"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// Dashboard is the operator view: what the scheduler last did and how much
// work is outstanding.
type Dashboard struct {
	SchedulerEnabled  bool             `json:"scheduler_enabled"`
	LastSyncs         []SyncTypeStatus `json:"last_syncs"`
	LiveFixtures      int              `json:"live_fixtures"`
	PendingSettlement int              `json:"pending_settlement_fixtures"`
}

type DashboardService struct {
	statusRepo       syncstatus.Repository
	fixtureRepo      fixture.Repository
	predictionRepo   prediction.Repository
	schedulerEnabled bool
}

func NewDashboardService(
	statusRepo syncstatus.Repository,
	fixtureRepo fixture.Repository,
	predictionRepo prediction.Repository,
	schedulerEnabled bool,
) *DashboardService {
	return &DashboardService{
		statusRepo:       statusRepo,
		fixtureRepo:      fixtureRepo,
		predictionRepo:   predictionRepo,
		schedulerEnabled: schedulerEnabled,
	}
}

func (s *DashboardService) Get(ctx context.Context) (Dashboard, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DashboardService.Get")
	defer span.End()

	out := Dashboard{SchedulerEnabled: s.schedulerEnabled}

	for _, syncType := range []string{
		syncstatus.TypeSchedule,
		syncstatus.TypeLive,
		syncstatus.TypeSeason,
		syncstatus.TypeSettlement,
	} {
		entry, exists, err := s.statusRepo.LatestByType(ctx, syncType)
		if err != nil {
			return Dashboard{}, fmt.Errorf("latest sync status type=%s: %w", syncType, err)
		}
		if !exists {
			continue
		}
		out.LastSyncs = append(out.LastSyncs, SyncTypeStatus{
			SyncType:      entry.SyncType,
			Status:        entry.Status,
			FixturesSeen:  entry.FixturesSeen,
			FixturesSaved: entry.FixturesSaved,
			ItemsFailed:   entry.ItemsFailed,
			ErrorMessage:  entry.ErrorMessage,
			StartedAt:     entry.StartedAt,
			FinishedAt:    entry.FinishedAt,
		})
	}

	live, err := s.fixtureRepo.ListByStatuses(ctx, []string{
		fixture.StatusFirstHalf,
		fixture.StatusHalftime,
		fixture.StatusSecondHalf,
		fixture.StatusExtraTime,
		fixture.StatusPenalties,
	})
	if err != nil {
		return Dashboard{}, fmt.Errorf("count live fixtures: %w", err)
	}
	out.LiveFixtures = len(live)

	pending, err := s.predictionRepo.ListFixtureIDsByStatus(ctx, prediction.StatusLocked)
	if err != nil {
		return Dashboard{}, fmt.Errorf("count fixtures awaiting settlement: %w", err)
	}
	out.PendingSettlement = len(pending)

	return out, nil
}
