package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/anto2887/prediction-league/internal/domain/seasonresult"
	"github.com/anto2887/prediction-league/internal/platform/id"
	qb "github.com/anto2887/prediction-league/internal/platform/querybuilder"
)

type SeasonResultRepository struct {
	db    *sqlx.DB
	idGen id.Generator
}

func NewSeasonResultRepository(db *sqlx.DB, idGen id.Generator) *SeasonResultRepository {
	return &SeasonResultRepository{db: db, idGen: idGen}
}

func (r *SeasonResultRepository) AddPoints(ctx context.Context, userID string, season, points int) error {
	newID, err := r.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate season result id: %w", err)
	}

	query, args, err := upsertSeasonPointsQuery(newID, userID, season, points)
	if err != nil {
		return fmt.Errorf("build add season points query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("add season points user=%s season=%d: %w", userID, season, err)
	}
	return nil
}

func (r *SeasonResultRepository) GetByUserAndSeason(ctx context.Context, userID string, season int) (seasonresult.Result, bool, error) {
	query, args, err := qb.Select("*").From("season_results").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("season", season),
		).
		ToSQL()
	if err != nil {
		return seasonresult.Result{}, false, fmt.Errorf("build get season result query: %w", err)
	}

	var row seasonResultTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return seasonresult.Result{}, false, nil
		}
		return seasonresult.Result{}, false, fmt.Errorf("get season result: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *SeasonResultRepository) ListBySeason(ctx context.Context, season, limit int) ([]seasonresult.Result, error) {
	builder := qb.Select("*").From("season_results").
		Where(qb.Eq("season", season)).
		OrderBy("points DESC", "user_id")
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list season results query: %w", err)
	}

	var rows []seasonResultTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list season results: %w", err)
	}

	out := make([]seasonresult.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// upsertSeasonPointsQuery increments the (user, season) total, creating the
// row lazily on first settlement. Shared with the settlement transaction.
func upsertSeasonPointsQuery(publicID, userID string, season, points int) (string, []any, error) {
	insertModel := seasonResultInsertModel{
		PublicID: publicID,
		UserID:   userID,
		Season:   season,
		Points:   points,
	}
	return qb.InsertModel("season_results", insertModel, `ON CONFLICT (user_id, season)
DO UPDATE SET
    points = season_results.points + EXCLUDED.points,
    updated_at = NOW()`)
}

type seasonResultTableModel struct {
	ID        int64     `db:"id"`
	PublicID  string    `db:"public_id"`
	UserID    string    `db:"user_id"`
	Season    int       `db:"season"`
	Points    int       `db:"points"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (m seasonResultTableModel) toDomain() seasonresult.Result {
	return seasonresult.Result{
		ID:        m.PublicID,
		UserID:    m.UserID,
		Season:    m.Season,
		Points:    m.Points,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type seasonResultInsertModel struct {
	PublicID string `db:"public_id"`
	UserID   string `db:"user_id"`
	Season   int    `db:"season"`
	Points   int    `db:"points"`
}
