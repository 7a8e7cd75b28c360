package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/anto2887/prediction-league/internal/domain/syncstatus"
	"github.com/anto2887/prediction-league/internal/platform/id"
	qb "github.com/anto2887/prediction-league/internal/platform/querybuilder"
)

// SyncStatusRepository is an append-only run log. Rows are never updated.
type SyncStatusRepository struct {
	db    *sqlx.DB
	idGen id.Generator
}

func NewSyncStatusRepository(db *sqlx.DB, idGen id.Generator) *SyncStatusRepository {
	return &SyncStatusRepository{db: db, idGen: idGen}
}

func (r *SyncStatusRepository) Append(ctx context.Context, entry syncstatus.Entry) (syncstatus.Entry, error) {
	newID, err := r.idGen.NewID()
	if err != nil {
		return syncstatus.Entry{}, fmt.Errorf("generate sync status id: %w", err)
	}
	entry.ID = newID

	insertModel := syncStatusInsertModel{
		PublicID:      entry.ID,
		SyncType:      entry.SyncType,
		Status:        entry.Status,
		LeagueID:      entry.LeagueID,
		FixturesSeen:  entry.FixturesSeen,
		FixturesSaved: entry.FixturesSaved,
		ItemsFailed:   entry.ItemsFailed,
		Detail:        entry.Detail,
		ErrorMessage:  entry.ErrorMessage,
		StartedAt:     entry.StartedAt.UTC(),
		FinishedAt:    entry.FinishedAt,
	}
	query, args, err := qb.InsertModel("sync_status", insertModel, "")
	if err != nil {
		return syncstatus.Entry{}, fmt.Errorf("build append sync status query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return syncstatus.Entry{}, fmt.Errorf("append sync status type=%s: %w", entry.SyncType, err)
	}

	return entry, nil
}

func (r *SyncStatusRepository) LatestByType(ctx context.Context, syncType string) (syncstatus.Entry, bool, error) {
	query, args, err := qb.Select("*").From("sync_status").
		Where(qb.Eq("sync_type", syncType)).
		OrderBy("started_at DESC", "id DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return syncstatus.Entry{}, false, fmt.Errorf("build latest sync status query: %w", err)
	}

	var row syncStatusTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return syncstatus.Entry{}, false, nil
		}
		return syncstatus.Entry{}, false, fmt.Errorf("get latest sync status: %w", err)
	}

	return row.toDomain(), true, nil
}

func (r *SyncStatusRepository) List(ctx context.Context, limit int) ([]syncstatus.Entry, error) {
	builder := qb.Select("*").From("sync_status").
		OrderBy("started_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list sync status query: %w", err)
	}

	var rows []syncStatusTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list sync status: %w", err)
	}

	out := make([]syncstatus.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

type syncStatusTableModel struct {
	ID            int64      `db:"id"`
	PublicID      string     `db:"public_id"`
	SyncType      string     `db:"sync_type"`
	Status        string     `db:"status"`
	LeagueID      string     `db:"league_public_id"`
	FixturesSeen  int        `db:"fixtures_seen"`
	FixturesSaved int        `db:"fixtures_saved"`
	ItemsFailed   int        `db:"items_failed"`
	Detail        string     `db:"detail"`
	ErrorMessage  string     `db:"error_message"`
	StartedAt     time.Time  `db:"started_at"`
	FinishedAt    *time.Time `db:"finished_at"`
}

func (m syncStatusTableModel) toDomain() syncstatus.Entry {
	return syncstatus.Entry{
		ID:            m.PublicID,
		SyncType:      m.SyncType,
		Status:        m.Status,
		LeagueID:      m.LeagueID,
		FixturesSeen:  m.FixturesSeen,
		FixturesSaved: m.FixturesSaved,
		ItemsFailed:   m.ItemsFailed,
		Detail:        m.Detail,
		ErrorMessage:  m.ErrorMessage,
		StartedAt:     m.StartedAt,
		FinishedAt:    m.FinishedAt,
	}
}

type syncStatusInsertModel struct {
	PublicID      string     `db:"public_id"`
	SyncType      string     `db:"sync_type"`
	Status        string     `db:"status"`
	LeagueID      string     `db:"league_public_id"`
	FixturesSeen  int        `db:"fixtures_seen"`
	FixturesSaved int        `db:"fixtures_saved"`
	ItemsFailed   int        `db:"items_failed"`
	Detail        string     `db:"detail"`
	ErrorMessage  string     `db:"error_message"`
	StartedAt     time.Time  `db:"started_at"`
	FinishedAt    *time.Time `db:"finished_at"`
}
