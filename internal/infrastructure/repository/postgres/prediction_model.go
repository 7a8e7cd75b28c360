package postgres

import (
	"time"

	"github.com/anto2887/prediction-league/internal/domain/prediction"
)

type predictionTableModel struct {
	ID          int64      `db:"id"`
	PublicID    string     `db:"public_id"`
	UserID      string     `db:"user_id"`
	FixtureID   string     `db:"fixture_public_id"`
	Season      int        `db:"season"`
	HomeGoals   int        `db:"home_goals"`
	AwayGoals   int        `db:"away_goals"`
	Status      string     `db:"status"`
	Points      *int       `db:"points"`
	SubmittedAt *time.Time `db:"submitted_at"`
	LockedAt    *time.Time `db:"locked_at"`
	ProcessedAt *time.Time `db:"processed_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}

func (m predictionTableModel) toDomain() prediction.Prediction {
	return prediction.Prediction{
		ID:          m.PublicID,
		UserID:      m.UserID,
		FixtureID:   m.FixtureID,
		Season:      m.Season,
		HomeGoals:   m.HomeGoals,
		AwayGoals:   m.AwayGoals,
		Status:      m.Status,
		Points:      m.Points,
		SubmittedAt: m.SubmittedAt,
		LockedAt:    m.LockedAt,
		ProcessedAt: m.ProcessedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type predictionInsertModel struct {
	PublicID    string     `db:"public_id"`
	UserID      string     `db:"user_id"`
	FixtureID   string     `db:"fixture_public_id"`
	Season      int        `db:"season"`
	HomeGoals   int        `db:"home_goals"`
	AwayGoals   int        `db:"away_goals"`
	Status      string     `db:"status"`
	SubmittedAt *time.Time `db:"submitted_at"`
}
