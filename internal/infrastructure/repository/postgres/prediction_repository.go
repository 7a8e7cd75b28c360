package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/anto2887/prediction-league/internal/domain/prediction"
	qb "github.com/anto2887/prediction-league/internal/platform/querybuilder"
)

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Upsert keys on (user_id, fixture_public_id). The DO UPDATE clause only fires
// while the stored row is still editable, so a prediction locked between the
// caller's read and this write cannot be overwritten.
func (r *PredictionRepository) Upsert(ctx context.Context, item prediction.Prediction) (prediction.Prediction, error) {
	insertModel := predictionInsertModel{
		PublicID:    item.ID,
		UserID:      item.UserID,
		FixtureID:   item.FixtureID,
		Season:      item.Season,
		HomeGoals:   item.HomeGoals,
		AwayGoals:   item.AwayGoals,
		Status:      item.Status,
		SubmittedAt: item.SubmittedAt,
	}

	query, args, err := qb.InsertModel("predictions", insertModel, `ON CONFLICT (user_id, fixture_public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    season = EXCLUDED.season,
    home_goals = EXCLUDED.home_goals,
    away_goals = EXCLUDED.away_goals,
    status = EXCLUDED.status,
    points = NULL,
    submitted_at = EXCLUDED.submitted_at,
    updated_at = NOW()
WHERE predictions.status IN ('EDITABLE', 'SUBMITTED')
RETURNING public_id, created_at, updated_at`)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("build upsert prediction query: %w", err)
	}

	row := r.db.QueryRowxContext(ctx, query, args...)
	if err := row.Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt); err != nil {
		if isNotFound(err) {
			// The conflicting row exists but its status guard rejected the
			// update.
			return prediction.Prediction{}, prediction.ErrNotEditable
		}
		return prediction.Prediction{}, fmt.Errorf("upsert prediction user=%s fixture=%s: %w", item.UserID, item.FixtureID, err)
	}

	return item, nil
}

func (r *PredictionRepository) GetByID(ctx context.Context, predictionID string) (prediction.Prediction, bool, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(
			qb.Eq("public_id", predictionID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, false, fmt.Errorf("build get prediction query: %w", err)
	}

	var row predictionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, false, nil
		}
		return prediction.Prediction{}, false, fmt.Errorf("get prediction: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *PredictionRepository) GetByUserAndFixture(ctx context.Context, userID, fixtureID string) (prediction.Prediction, bool, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("fixture_public_id", fixtureID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return prediction.Prediction{}, false, fmt.Errorf("build get prediction by user and fixture query: %w", err)
	}

	var row predictionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return prediction.Prediction{}, false, nil
		}
		return prediction.Prediction{}, false, fmt.Errorf("get prediction by user and fixture: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *PredictionRepository) ListByUser(ctx context.Context, userID string, season int) ([]prediction.Prediction, error) {
	conditions := []qb.Condition{
		qb.Eq("user_id", userID),
		qb.IsNull("deleted_at"),
	}
	if season > 0 {
		conditions = append(conditions, qb.Eq("season", season))
	}

	query, args, err := qb.Select("*").From("predictions").
		Where(conditions...).
		OrderBy("created_at DESC", "id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list predictions by user query: %w", err)
	}

	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list predictions by user: %w", err)
	}

	return predictionRowsToDomain(rows), nil
}

func (r *PredictionRepository) ListByFixtureAndStatus(ctx context.Context, fixtureID, status string) ([]prediction.Prediction, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(
			qb.Eq("fixture_public_id", fixtureID),
			qb.Eq("status", status),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list predictions by fixture and status query: %w", err)
	}

	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list predictions by fixture and status: %w", err)
	}

	return predictionRowsToDomain(rows), nil
}

func (r *PredictionRepository) ListFixtureIDsByStatus(ctx context.Context, status string) ([]string, error) {
	query, args, err := qb.Select("fixture_public_id").From("predictions").
		Where(
			qb.Eq("status", status),
			qb.IsNull("deleted_at"),
		).
		GroupBy("fixture_public_id").
		OrderBy("fixture_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fixture ids by status query: %w", err)
	}

	var rows []string
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fixture ids by status: %w", err)
	}
	return rows, nil
}

func (r *PredictionRepository) UpdateStatus(ctx context.Context, predictionID, fromStatus, toStatus string) (bool, error) {
	query, args, err := qb.Update("predictions").
		Set("status", toStatus).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", predictionID),
			qb.Eq("status", fromStatus),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update prediction status query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update prediction status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update prediction status rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *PredictionRepository) LockByFixture(ctx context.Context, fixtureID string) (int, error) {
	query, args, err := qb.Update("predictions").
		Set("status", prediction.StatusLocked).
		SetExpr("locked_at", "NOW()").
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("fixture_public_id", fixtureID),
			qb.In("status", []any{prediction.StatusEditable, prediction.StatusSubmitted}),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build lock predictions query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("lock predictions fixture=%s: %w", fixtureID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("lock predictions rows affected: %w", err)
	}
	return int(affected), nil
}

func predictionRowsToDomain(rows []predictionTableModel) []prediction.Prediction {
	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out
}
