package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/anto2887/prediction-league/internal/domain/seasonresult"
	"github.com/anto2887/prediction-league/internal/platform/cache"
	"github.com/anto2887/prediction-league/internal/platform/logging"
)

type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Points int    `json:"points"`
}

type LeaderboardService struct {
	resultRepo seasonresult.Repository
	cache      *cache.Store
	logger     *logging.Logger
}

func NewLeaderboardService(resultRepo seasonresult.Repository, cacheStore *cache.Store, logger *logging.Logger) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}

	return &LeaderboardService{
		resultRepo: resultRepo,
		cache:      cacheStore,
		logger:     logger,
	}
}

// Season returns the season table ordered by points. Ties share a rank, as a
// league table would show them.
func (s *LeaderboardService) Season(ctx context.Context, season, limit int) ([]LeaderboardEntry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Season")
	defer span.End()

	if season <= 0 {
		return nil, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}

	load := func(ctx context.Context) (any, error) {
		rows, err := s.resultRepo.ListBySeason(ctx, season, limit)
		if err != nil {
			return nil, fmt.Errorf("list season results season=%d: %w", season, err)
		}
		return rankResults(rows), nil
	}

	if s.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		entries, _ := v.([]LeaderboardEntry)
		return entries, nil
	}

	key := "leaderboard:" + strconv.Itoa(season) + ":" + strconv.Itoa(limit)
	v, err := s.cache.GetOrLoad(ctx, key, load)
	if err != nil {
		return nil, err
	}

	entries, _ := v.([]LeaderboardEntry)
	return append([]LeaderboardEntry(nil), entries...), nil
}

// UserTotal returns one user's accumulated points for a season; zero when the
// user has no settled predictions yet.
func (s *LeaderboardService) UserTotal(ctx context.Context, userID string, season int) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.UserTotal")
	defer span.End()

	if season <= 0 {
		return 0, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}

	row, exists, err := s.resultRepo.GetByUserAndSeason(ctx, userID, season)
	if err != nil {
		return 0, fmt.Errorf("get season result user=%s season=%d: %w", userID, season, err)
	}
	if !exists {
		return 0, nil
	}
	return row.Points, nil
}

func rankResults(rows []seasonresult.Result) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(rows))
	rank := 0
	lastPoints := -1
	for i, row := range rows {
		if i == 0 || row.Points != lastPoints {
			rank = i + 1
		}
		lastPoints = row.Points
		entries = append(entries, LeaderboardEntry{
			Rank:   rank,
			UserID: row.UserID,
			Points: row.Points,
		})
	}
	return entries
}
