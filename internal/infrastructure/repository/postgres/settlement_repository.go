package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/anto2887/prediction-league/internal/domain/prediction"
	"github.com/anto2887/prediction-league/internal/platform/id"
	qb "github.com/anto2887/prediction-league/internal/platform/querybuilder"
)

// SettlementRepository commits one prediction's outcome atomically: the
// LOCKED row becomes PROCESSED and the owner's season total grows by the
// awarded points, or neither happens.
type SettlementRepository struct {
	db    *sqlx.DB
	idGen id.Generator
}

func NewSettlementRepository(db *sqlx.DB, idGen id.Generator) *SettlementRepository {
	return &SettlementRepository{db: db, idGen: idGen}
}

func (r *SettlementRepository) SettlePrediction(ctx context.Context, predictionID string, points int, userID string, season int) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin settle prediction tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	updateQuery, updateArgs, err := qb.Update("predictions").
		Set("status", prediction.StatusProcessed).
		Set("points", points).
		SetExpr("processed_at", "NOW()").
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", predictionID),
			qb.Eq("status", prediction.StatusLocked),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build settle prediction update query: %w", err)
	}

	res, err := tx.ExecContext(ctx, updateQuery, updateArgs...)
	if err != nil {
		return false, fmt.Errorf("mark prediction processed id=%s: %w", predictionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("settle prediction rows affected: %w", err)
	}
	if affected == 0 {
		// Already processed by a concurrent run; nothing to commit.
		return false, nil
	}

	newID, err := r.idGen.NewID()
	if err != nil {
		return false, fmt.Errorf("generate season result id: %w", err)
	}
	pointsQuery, pointsArgs, err := upsertSeasonPointsQuery(newID, userID, season, points)
	if err != nil {
		return false, fmt.Errorf("build season points query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, pointsQuery, pointsArgs...); err != nil {
		return false, fmt.Errorf("add season points user=%s season=%d: %w", userID, season, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit settle prediction tx: %w", err)
	}
	return true, nil
}
