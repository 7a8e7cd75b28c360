package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
	"github.com/anto2887/prediction-league/internal/domain/league"
)

// FixtureQuery narrows the fixture listing. LeagueID or Date is required so a
// query can never walk the whole table.
type FixtureQuery struct {
	LeagueID string
	Season   int
	Date     *time.Time
	Status   string
}

type FixtureService struct {
	fixtureRepo fixture.Repository
	leagueRepo  league.Repository
}

func NewFixtureService(fixtureRepo fixture.Repository, leagueRepo league.Repository) *FixtureService {
	return &FixtureService{
		fixtureRepo: fixtureRepo,
		leagueRepo:  leagueRepo,
	}
}

func (s *FixtureService) Get(ctx context.Context, fixtureID string) (fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.Get")
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return fixture.Fixture{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	item, exists, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("get fixture id=%s: %w", fixtureID, err)
	}
	if !exists {
		return fixture.Fixture{}, fmt.Errorf("%w: unknown fixture id=%s", ErrNotFound, fixtureID)
	}
	return item, nil
}

func (s *FixtureService) List(ctx context.Context, query FixtureQuery) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.List")
	defer span.End()

	query.LeagueID = strings.TrimSpace(query.LeagueID)
	if query.LeagueID == "" && query.Date == nil {
		return nil, fmt.Errorf("%w: league_id or date is required", ErrInvalidInput)
	}

	var items []fixture.Fixture
	var err error
	switch {
	case query.Date != nil:
		dayStart := query.Date.UTC().Truncate(24 * time.Hour)
		items, err = s.fixtureRepo.ListByKickoffRange(ctx, dayStart, dayStart.Add(24*time.Hour))
		if err != nil {
			return nil, fmt.Errorf("list fixtures by date: %w", err)
		}
		if query.LeagueID != "" {
			items = filterFixturesByLeague(items, query.LeagueID)
		}
	default:
		season := query.Season
		if season <= 0 {
			lg, exists, lgErr := s.leagueRepo.GetByID(ctx, query.LeagueID)
			if lgErr != nil {
				return nil, fmt.Errorf("get league id=%s: %w", query.LeagueID, lgErr)
			}
			if !exists {
				return nil, fmt.Errorf("%w: unknown league id=%s", ErrNotFound, query.LeagueID)
			}
			season = lg.Season
		}
		items, err = s.fixtureRepo.ListByLeague(ctx, query.LeagueID, season)
		if err != nil {
			return nil, fmt.Errorf("list fixtures league=%s: %w", query.LeagueID, err)
		}
	}

	if status := strings.TrimSpace(query.Status); status != "" {
		items = filterFixturesByStatusClass(items, status)
	}
	return items, nil
}

// Live returns fixtures currently in play across all tracked leagues.
func (s *FixtureService) Live(ctx context.Context) ([]fixture.Fixture, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FixtureService.Live")
	defer span.End()

	items, err := s.fixtureRepo.ListByStatuses(ctx, []string{
		fixture.StatusFirstHalf,
		fixture.StatusHalftime,
		fixture.StatusSecondHalf,
		fixture.StatusExtraTime,
		fixture.StatusPenalties,
	})
	if err != nil {
		return nil, fmt.Errorf("list live fixtures: %w", err)
	}
	return items, nil
}

func filterFixturesByLeague(items []fixture.Fixture, leagueID string) []fixture.Fixture {
	out := items[:0:0]
	for _, item := range items {
		if item.LeagueID == leagueID {
			out = append(out, item)
		}
	}
	return out
}

// filterFixturesByStatusClass accepts either a concrete status or one of the
// classes "live", "finished", "upcoming".
func filterFixturesByStatusClass(items []fixture.Fixture, status string) []fixture.Fixture {
	class := strings.ToLower(strings.TrimSpace(status))
	out := items[:0:0]
	for _, item := range items {
		keep := false
		switch class {
		case "live":
			keep = fixture.IsLiveStatus(item.Status)
		case "finished":
			keep = fixture.IsFinishedStatus(item.Status)
		case "upcoming":
			keep = fixture.NormalizeStatus(item.Status) == fixture.StatusNotStarted
		default:
			keep = fixture.NormalizeStatus(item.Status) == fixture.NormalizeStatus(status)
		}
		if keep {
			out = append(out, item)
		}
	}
	return out
}
