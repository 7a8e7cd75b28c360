package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
	qb "github.com/anto2887/prediction-league/internal/platform/querybuilder"
)

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

// Upsert keys on provider_fixture_id so repeated syncs converge on one row.
// The stored public id survives conflicts and comes back on the result.
func (r *FixtureRepository) Upsert(ctx context.Context, item fixture.Fixture) (fixture.Fixture, error) {
	insertModel := fixtureInsertModel{
		PublicID:          item.ID,
		ProviderFixtureID: item.ProviderFixtureID,
		LeagueID:          item.LeagueID,
		Season:            item.Season,
		Round:             item.Round,
		HomeTeam:          item.HomeTeam,
		AwayTeam:          item.AwayTeam,
		HomeGoals:         item.HomeGoals,
		AwayGoals:         item.AwayGoals,
		Status:            item.Status,
		KickoffAt:         item.KickoffAt.UTC(),
		Venue:             item.Venue,
		FinishedAt:        item.FinishedAt,
		LastSyncedAt:      item.LastSyncedAt.UTC(),
	}

	query, args, err := qb.InsertModel("fixtures", insertModel, `ON CONFLICT (provider_fixture_id) WHERE deleted_at IS NULL
DO UPDATE SET
    league_public_id = EXCLUDED.league_public_id,
    season = EXCLUDED.season,
    round = EXCLUDED.round,
    home_team = EXCLUDED.home_team,
    away_team = EXCLUDED.away_team,
    home_goals = EXCLUDED.home_goals,
    away_goals = EXCLUDED.away_goals,
    status = EXCLUDED.status,
    kickoff_at = EXCLUDED.kickoff_at,
    venue = EXCLUDED.venue,
    finished_at = EXCLUDED.finished_at,
    last_synced_at = EXCLUDED.last_synced_at,
    updated_at = NOW(),
    deleted_at = NULL
RETURNING public_id`)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("build upsert fixture query: %w", err)
	}

	var publicID string
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&publicID); err != nil {
		return fixture.Fixture{}, fmt.Errorf("upsert fixture provider_id=%d: %w", item.ProviderFixtureID, err)
	}

	item.ID = publicID
	return item, nil
}

func (r *FixtureRepository) GetByID(ctx context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(
			qb.Eq("public_id", fixtureID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build get fixture query: %w", err)
	}

	var row fixtureTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("get fixture: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *FixtureRepository) GetByProviderID(ctx context.Context, providerFixtureID int64) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(
			qb.Eq("provider_fixture_id", providerFixtureID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build get fixture by provider id query: %w", err)
	}

	var row fixtureTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("get fixture by provider id: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *FixtureRepository) ListByLeague(ctx context.Context, leagueID string, season int) ([]fixture.Fixture, error) {
	conditions := []qb.Condition{
		qb.Eq("league_public_id", leagueID),
		qb.IsNull("deleted_at"),
	}
	if season > 0 {
		conditions = append(conditions, qb.Eq("season", season))
	}

	query, args, err := qb.Select("*").From("fixtures").
		Where(conditions...).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fixtures by league query: %w", err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fixtures by league: %w", err)
	}

	return fixtureRowsToDomain(rows), nil
}

func (r *FixtureRepository) ListByKickoffRange(ctx context.Context, from, to time.Time) ([]fixture.Fixture, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(
			qb.Expr("kickoff_at >= ?", from.UTC()),
			qb.Expr("kickoff_at < ?", to.UTC()),
			qb.IsNull("deleted_at"),
		).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fixtures by kickoff range query: %w", err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fixtures by kickoff range: %w", err)
	}

	return fixtureRowsToDomain(rows), nil
}

func (r *FixtureRepository) ListByStatuses(ctx context.Context, statuses []string) ([]fixture.Fixture, error) {
	values := make([]any, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, status)
	}

	query, args, err := qb.Select("*").From("fixtures").
		Where(
			qb.In("status", values),
			qb.IsNull("deleted_at"),
		).
		OrderBy("kickoff_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fixtures by statuses query: %w", err)
	}

	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fixtures by statuses: %w", err)
	}

	return fixtureRowsToDomain(rows), nil
}

func fixtureRowsToDomain(rows []fixtureTableModel) []fixture.Fixture {
	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
