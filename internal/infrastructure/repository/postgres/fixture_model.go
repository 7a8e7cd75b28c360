package postgres

import (
	"time"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
)

type fixtureTableModel struct {
	ID                int64      `db:"id"`
	PublicID          string     `db:"public_id"`
	ProviderFixtureID int64      `db:"provider_fixture_id"`
	LeagueID          string     `db:"league_public_id"`
	Season            int        `db:"season"`
	Round             string     `db:"round"`
	HomeTeam          string     `db:"home_team"`
	AwayTeam          string     `db:"away_team"`
	HomeGoals         *int       `db:"home_goals"`
	AwayGoals         *int       `db:"away_goals"`
	Status            string     `db:"status"`
	KickoffAt         time.Time  `db:"kickoff_at"`
	Venue             string     `db:"venue"`
	FinishedAt        *time.Time `db:"finished_at"`
	LastSyncedAt      time.Time  `db:"last_synced_at"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
	DeletedAt         *time.Time `db:"deleted_at"`
}

func (m fixtureTableModel) toDomain() fixture.Fixture {
	return fixture.Fixture{
		ID:                m.PublicID,
		ProviderFixtureID: m.ProviderFixtureID,
		LeagueID:          m.LeagueID,
		Season:            m.Season,
		Round:             m.Round,
		HomeTeam:          m.HomeTeam,
		AwayTeam:          m.AwayTeam,
		HomeGoals:         m.HomeGoals,
		AwayGoals:         m.AwayGoals,
		Status:            m.Status,
		KickoffAt:         m.KickoffAt,
		Venue:             m.Venue,
		FinishedAt:        m.FinishedAt,
		LastSyncedAt:      m.LastSyncedAt,
	}
}

type fixtureInsertModel struct {
	PublicID          string     `db:"public_id"`
	ProviderFixtureID int64      `db:"provider_fixture_id"`
	LeagueID          string     `db:"league_public_id"`
	Season            int        `db:"season"`
	Round             string     `db:"round"`
	HomeTeam          string     `db:"home_team"`
	AwayTeam          string     `db:"away_team"`
	HomeGoals         *int       `db:"home_goals"`
	AwayGoals         *int       `db:"away_goals"`
	Status            string     `db:"status"`
	KickoffAt         time.Time  `db:"kickoff_at"`
	Venue             string     `db:"venue"`
	FinishedAt        *time.Time `db:"finished_at"`
	LastSyncedAt      time.Time  `db:"last_synced_at"`
}
