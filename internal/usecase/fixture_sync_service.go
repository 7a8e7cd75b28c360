package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
	"github.com/anto2887/prediction-league/internal/domain/league"
	"github.com/anto2887/prediction-league/internal/domain/prediction"
	"github.com/anto2887/prediction-league/internal/domain/rawdata"
	"github.com/anto2887/prediction-league/internal/domain/syncstatus"
	"github.com/anto2887/prediction-league/internal/platform/id"
	"github.com/anto2887/prediction-league/internal/platform/logging"
)

// MatchDataProvider is the external source of match data. Implementations own
// transport concerns (rate limiting, retries, credential lookup); the sync
// service only sees fixtures or an error.
type MatchDataProvider interface {
	FetchFixturesByDate(ctx context.Context, providerLeagueID int64, season int, date time.Time) ([]ExternalFixture, []rawdata.Payload, error)
	FetchFixturesByRound(ctx context.Context, providerLeagueID int64, season int, round string) ([]ExternalFixture, []rawdata.Payload, error)
	FetchFixturesBySeason(ctx context.Context, providerLeagueID int64, season int) ([]ExternalFixture, []rawdata.Payload, error)
	FetchLiveFixtures(ctx context.Context, providerLeagueID int64) ([]ExternalFixture, []rawdata.Payload, error)
}

// ExternalFixture is the provider-shaped fixture before domain mapping.
type ExternalFixture struct {
	ProviderFixtureID int64
	ProviderLeagueID  int64
	Season            int
	Round             string
	HomeTeam          string
	AwayTeam          string
	HomeGoals         *int
	AwayGoals         *int
	StatusShort       string
	StatusLong        string
	KickoffAt         time.Time
	Venue             string
}

// fixtureSettler lets sync hand freshly finished fixtures to settlement
// without importing its concrete service.
type fixtureSettler interface {
	SettleFixture(ctx context.Context, fx fixture.Fixture) (SettlementResult, error)
}

type FixtureSyncConfig struct {
	Enabled    bool
	Source     string
	BatchSize  int
	BatchPause time.Duration
}

type SyncResult struct {
	SyncType      string `json:"sync_type"`
	LeagueID      string `json:"league_id,omitempty"`
	FixturesSeen  int    `json:"fixtures_seen"`
	FixturesSaved int    `json:"fixtures_saved"`
	Locked        int    `json:"predictions_locked"`
	Settled       int    `json:"predictions_settled"`
	Failed        int    `json:"items_failed"`
}

type FixtureSyncService struct {
	cfg            FixtureSyncConfig
	provider       MatchDataProvider
	leagueRepo     league.Repository
	fixtureRepo    fixture.Repository
	predictionRepo prediction.Repository
	rawRepo        rawdata.Repository
	statusRepo     syncstatus.Repository
	settler        fixtureSettler
	idGen          id.Generator
	logger         *logging.Logger
	now            func() time.Time
}

func NewFixtureSyncService(
	cfg FixtureSyncConfig,
	provider MatchDataProvider,
	leagueRepo league.Repository,
	fixtureRepo fixture.Repository,
	predictionRepo prediction.Repository,
	rawRepo rawdata.Repository,
	statusRepo syncstatus.Repository,
	settler fixtureSettler,
	idGen id.Generator,
	logger *logging.Logger,
) *FixtureSyncService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if strings.TrimSpace(cfg.Source) == "" {
		cfg.Source = "api-football"
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &FixtureSyncService{
		cfg:            cfg,
		provider:       provider,
		leagueRepo:     leagueRepo,
		fixtureRepo:    fixtureRepo,
		predictionRepo: predictionRepo,
		rawRepo:        rawRepo,
		statusRepo:     statusRepo,
		settler:        settler,
		idGen:          idGen,
		logger:         logger,
		now:            time.Now,
	}
}

// SyncSchedule refreshes fixtures kicking off on the given date. An empty
// leagueID targets every tracked league.
func (s *FixtureSyncService) SyncSchedule(ctx context.Context, leagueID string, date time.Time) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureSyncService.SyncSchedule")
	defer span.End()

	return s.runSync(ctx, syncstatus.TypeSchedule, leagueID, func(ctx context.Context, lg league.League) ([]ExternalFixture, []rawdata.Payload, error) {
		return s.provider.FetchFixturesByDate(ctx, lg.ProviderLeagueID, lg.Season, date)
	})
}

// SyncRound refreshes fixtures of one named round, e.g. "Regular Season - 12".
func (s *FixtureSyncService) SyncRound(ctx context.Context, leagueID, round string) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureSyncService.SyncRound")
	defer span.End()

	round = strings.TrimSpace(round)
	if round == "" {
		return SyncResult{}, fmt.Errorf("%w: round is required", ErrInvalidInput)
	}

	return s.runSync(ctx, syncstatus.TypeSchedule, leagueID, func(ctx context.Context, lg league.League) ([]ExternalFixture, []rawdata.Payload, error) {
		return s.provider.FetchFixturesByRound(ctx, lg.ProviderLeagueID, lg.Season, round)
	})
}

// SyncLive refreshes fixtures currently in play.
func (s *FixtureSyncService) SyncLive(ctx context.Context, leagueID string) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureSyncService.SyncLive")
	defer span.End()

	return s.runSync(ctx, syncstatus.TypeLive, leagueID, func(ctx context.Context, lg league.League) ([]ExternalFixture, []rawdata.Payload, error) {
		return s.provider.FetchLiveFixtures(ctx, lg.ProviderLeagueID)
	})
}

// SyncSeason backfills the whole season schedule. Fixtures are applied in
// batches with a pause in between so a backfill cannot monopolize the
// provider quota.
func (s *FixtureSyncService) SyncSeason(ctx context.Context, leagueID string) (SyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureSyncService.SyncSeason")
	defer span.End()

	return s.runSync(ctx, syncstatus.TypeSeason, leagueID, func(ctx context.Context, lg league.League) ([]ExternalFixture, []rawdata.Payload, error) {
		return s.provider.FetchFixturesBySeason(ctx, lg.ProviderLeagueID, lg.Season)
	})
}

type leagueFetchFunc func(ctx context.Context, lg league.League) ([]ExternalFixture, []rawdata.Payload, error)

func (s *FixtureSyncService) runSync(ctx context.Context, syncType, leagueID string, fetch leagueFetchFunc) (SyncResult, error) {
	if !s.cfg.Enabled {
		return SyncResult{}, fmt.Errorf("%w: fixture sync is disabled (FOOTBALL_API_ENABLED=false)", ErrDependencyUnavailable)
	}
	if s.provider == nil || s.leagueRepo == nil || s.fixtureRepo == nil {
		return SyncResult{}, fmt.Errorf("%w: fixture sync is not fully configured", ErrDependencyUnavailable)
	}

	startedAt := s.now().UTC()
	result := SyncResult{SyncType: syncType, LeagueID: leagueID}

	targets, err := s.resolveLeagues(ctx, leagueID)
	if err != nil {
		s.recordRun(ctx, syncType, leagueID, result, startedAt, err)
		return SyncResult{}, err
	}

	var runErr error
	for _, lg := range targets {
		items, payloads, fetchErr := fetch(ctx, lg)
		if fetchErr != nil {
			// One league failing must not stop the others; keep the first
			// error for the run record.
			s.logger.WarnContext(ctx, "fixture fetch failed",
				"sync_type", syncType, "league_id", lg.ID, "error", fetchErr)
			result.Failed++
			if runErr == nil {
				runErr = fmt.Errorf("fetch fixtures league=%s: %w", lg.ID, fetchErr)
			}
			continue
		}

		s.storeRawPayloads(ctx, lg.ID, payloads)
		if err := s.applyFixtures(ctx, lg, items, &result); err != nil {
			if runErr == nil {
				runErr = err
			}
		}
	}

	s.recordRun(ctx, syncType, leagueID, result, startedAt, runErr)
	if runErr != nil && result.FixturesSaved == 0 {
		return result, runErr
	}
	return result, nil
}

// applyFixtures upserts fixtures batch by batch. A single bad fixture is
// logged and skipped; it never aborts the run.
func (s *FixtureSyncService) applyFixtures(ctx context.Context, lg league.League, items []ExternalFixture, result *SyncResult) error {
	var firstErr error
	for start := 0; start < len(items); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(items) {
			end = len(items)
		}

		for _, item := range items[start:end] {
			result.FixturesSeen++
			if err := s.applyOne(ctx, lg, item, result); err != nil {
				result.Failed++
				if firstErr == nil {
					firstErr = err
				}
				s.logger.WarnContext(ctx, "fixture upsert failed",
					"league_id", lg.ID,
					"provider_fixture_id", item.ProviderFixtureID,
					"error", err,
				)
			}
		}

		if end < len(items) && s.cfg.BatchPause > 0 {
			timer := time.NewTimer(s.cfg.BatchPause)
			select {
			case <-ctx.Done():
				timer.Stop()
				if firstErr == nil {
					firstErr = ctx.Err()
				}
				return firstErr
			case <-timer.C:
			}
		}
	}

	return firstErr
}

func (s *FixtureSyncService) applyOne(ctx context.Context, lg league.League, item ExternalFixture, result *SyncResult) error {
	if item.ProviderFixtureID <= 0 {
		return fmt.Errorf("%w: provider fixture id is missing", ErrInvalidInput)
	}

	existing, exists, err := s.fixtureRepo.GetByProviderID(ctx, item.ProviderFixtureID)
	if err != nil {
		return fmt.Errorf("get fixture by provider id=%d: %w", item.ProviderFixtureID, err)
	}

	status := fixture.MapProviderStatus(item.StatusShort, item.StatusLong)
	wasFinished := exists && fixture.IsFinishedStatus(existing.Status)

	next := fixture.Fixture{
		ProviderFixtureID: item.ProviderFixtureID,
		LeagueID:          lg.ID,
		Season:            pickSeason(item.Season, lg.Season),
		Round:             strings.TrimSpace(item.Round),
		HomeTeam:          strings.TrimSpace(item.HomeTeam),
		AwayTeam:          strings.TrimSpace(item.AwayTeam),
		HomeGoals:         resolveGoals(status, item.HomeGoals, existingGoals(exists, existing.HomeGoals)),
		AwayGoals:         resolveGoals(status, item.AwayGoals, existingGoals(exists, existing.AwayGoals)),
		Status:            status,
		KickoffAt:         item.KickoffAt,
		Venue:             strings.TrimSpace(item.Venue),
		LastSyncedAt:      s.now().UTC(),
	}
	if exists {
		next.ID = existing.ID
		next.FinishedAt = existing.FinishedAt
	} else {
		newID, idErr := s.idGen.NewID()
		if idErr != nil {
			return fmt.Errorf("generate fixture id: %w", idErr)
		}
		next.ID = newID
	}
	if fixture.IsFinishedStatus(status) && next.FinishedAt == nil {
		finishedAt := s.now().UTC()
		next.FinishedAt = &finishedAt
	}

	saved, err := s.fixtureRepo.Upsert(ctx, next)
	if err != nil {
		return fmt.Errorf("upsert fixture provider_id=%d: %w", item.ProviderFixtureID, err)
	}
	result.FixturesSaved++

	if fixture.HasKickedOff(status) && s.predictionRepo != nil {
		locked, lockErr := s.predictionRepo.LockByFixture(ctx, saved.ID)
		if lockErr != nil {
			s.logger.WarnContext(ctx, "lock predictions failed", "fixture_id", saved.ID, "error", lockErr)
		} else {
			result.Locked += locked
		}
	}

	if s.shouldSettle(status, wasFinished, existing, saved) {
		settleResult, settleErr := s.settler.SettleFixture(ctx, saved)
		if settleErr != nil {
			s.logger.WarnContext(ctx, "settlement after sync failed", "fixture_id", saved.ID, "error", settleErr)
		} else {
			result.Settled += settleResult.Settled
		}
	}

	return nil
}

// shouldSettle triggers settlement on the transition into a finished status,
// but only once a real final score is known. A finished fixture whose score
// arrives on a later poll settles then; SettleFixture itself is idempotent, so
// re-triggering for an already settled fixture is a no-op.
func (s *FixtureSyncService) shouldSettle(status string, wasFinished bool, existing, saved fixture.Fixture) bool {
	if s.settler == nil || !fixture.IsFinishedStatus(status) {
		return false
	}
	if saved.HomeGoals == nil || saved.AwayGoals == nil {
		return false
	}
	return !wasFinished || existing.HomeGoals == nil || existing.AwayGoals == nil
}

func (s *FixtureSyncService) resolveLeagues(ctx context.Context, leagueID string) ([]league.League, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID != "" {
		lg, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
		if err != nil {
			return nil, fmt.Errorf("get league id=%s: %w", leagueID, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: unknown league id=%s", ErrNotFound, leagueID)
		}
		return []league.League{lg}, nil
	}

	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	if len(leagues) == 0 {
		return nil, fmt.Errorf("%w: no tracked leagues configured", ErrNotFound)
	}
	return leagues, nil
}

func (s *FixtureSyncService) storeRawPayloads(ctx context.Context, leagueID string, payloads []rawdata.Payload) {
	if s.rawRepo == nil || len(payloads) == 0 {
		return
	}

	for i := range payloads {
		if payloads[i].LeagueID == "" {
			payloads[i].LeagueID = leagueID
		}
		if payloads[i].PayloadHash == "" {
			payloads[i].PayloadHash = hashPayload(payloads[i].PayloadJSON)
		}
		if payloads[i].FetchedAt.IsZero() {
			payloads[i].FetchedAt = s.now().UTC()
		}
	}

	if err := s.rawRepo.UpsertMany(ctx, payloads); err != nil {
		s.logger.WarnContext(ctx, "store raw payloads failed", "league_id", leagueID, "error", err)
	}
}

func (s *FixtureSyncService) recordRun(ctx context.Context, syncType, leagueID string, result SyncResult, startedAt time.Time, runErr error) {
	if s.statusRepo == nil {
		return
	}

	finishedAt := s.now().UTC()
	entry := syncstatus.Entry{
		SyncType:      syncType,
		Status:        syncstatus.StatusCompleted,
		LeagueID:      leagueID,
		FixturesSeen:  result.FixturesSeen,
		FixturesSaved: result.FixturesSaved,
		ItemsFailed:   result.Failed,
		Detail:        fmt.Sprintf("locked=%d settled=%d", result.Locked, result.Settled),
		StartedAt:     startedAt,
		FinishedAt:    &finishedAt,
	}
	if runErr != nil {
		entry.Status = syncstatus.StatusFailed
		entry.ErrorMessage = runErr.Error()
	}

	if _, err := s.statusRepo.Append(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "append sync status failed", "sync_type", syncType, "error", err)
	}
}

// resolveGoals keeps provider nulls as nulls before kickoff and turns them
// into zeros once the match is underway, preferring a previously stored value
// over inventing one. A finished report with no score at all keeps nil goals:
// settlement would otherwise score everyone against a phantom 0-0, and
// processed predictions are never recomputed.
func resolveGoals(status string, providerGoals, storedGoals *int) *int {
	if providerGoals != nil {
		return cloneIntPtr(providerGoals)
	}
	if !fixture.HasKickedOff(status) {
		return nil
	}
	if storedGoals != nil {
		return cloneIntPtr(storedGoals)
	}
	if fixture.IsFinishedStatus(status) {
		return nil
	}
	zero := 0
	return &zero
}

func existingGoals(exists bool, goals *int) *int {
	if !exists {
		return nil
	}
	return goals
}

func pickSeason(itemSeason, leagueSeason int) int {
	if itemSeason > 0 {
		return itemSeason
	}
	return leagueSeason
}

func cloneIntPtr(value *int) *int {
	if value == nil {
		return nil
	}
	out := *value
	return &out
}

func hashPayload(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
