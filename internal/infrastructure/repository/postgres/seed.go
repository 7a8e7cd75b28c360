package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/anto2887/prediction-league/internal/domain/league"
	qb "github.com/anto2887/prediction-league/internal/platform/querybuilder"
)

// BootstrapLeagues reconciles the league catalogue with configuration on
// startup. Leagues removed from configuration stay in the table; fixtures and
// predictions keep referencing them.
func BootstrapLeagues(ctx context.Context, db *sqlx.DB, leagues []league.League) error {
	if len(leagues) == 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin league bootstrap tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, l := range leagues {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("invalid league %s: %w", l.ID, err)
		}

		insertModel := leagueInsertModel{
			PublicID:         l.ID,
			Name:             l.Name,
			ProviderLeagueID: l.ProviderLeagueID,
			Season:           l.Season,
			IsDefault:        l.IsDefault,
		}
		query, args, err := qb.InsertModel("leagues", insertModel, `ON CONFLICT (public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    name = EXCLUDED.name,
    provider_league_id = EXCLUDED.provider_league_id,
    season = EXCLUDED.season,
    is_default = EXCLUDED.is_default,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build bootstrap league %s query: %w", l.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("bootstrap league %s: %w", l.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit league bootstrap tx: %w", err)
	}

	return nil
}

type leagueInsertModel struct {
	PublicID         string `db:"public_id"`
	Name             string `db:"name"`
	ProviderLeagueID int64  `db:"provider_league_id"`
	Season           int    `db:"season"`
	IsDefault        bool   `db:"is_default"`
}
