package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anto2887/prediction-league/internal/domain/fixture"
	"github.com/anto2887/prediction-league/internal/domain/prediction"
	"github.com/anto2887/prediction-league/internal/platform/id"
	"github.com/anto2887/prediction-league/internal/platform/logging"
)

const maxPredictedGoals = 99

type SubmitPredictionInput struct {
	UserID    string
	FixtureID string
	HomeGoals int
	AwayGoals int
}

type PredictionService struct {
	predictionRepo prediction.Repository
	fixtureRepo    fixture.Repository
	idGen          id.Generator
	logger         *logging.Logger
	now            func() time.Time
}

func NewPredictionService(
	predictionRepo prediction.Repository,
	fixtureRepo fixture.Repository,
	idGen id.Generator,
	logger *logging.Logger,
) *PredictionService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PredictionService{
		predictionRepo: predictionRepo,
		fixtureRepo:    fixtureRepo,
		idGen:          idGen,
		logger:         logger,
		now:            time.Now,
	}
}

// Submit stores the caller's scoreline for a fixture. Predictions stay open
// until the fixture leaves NOT_STARTED; after that submissions are rejected.
func (s *PredictionService) Submit(ctx context.Context, input SubmitPredictionInput) (prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Submit")
	defer span.End()

	if err := validateSubmitInput(input); err != nil {
		return prediction.Prediction{}, err
	}

	fx, exists, err := s.fixtureRepo.GetByID(ctx, input.FixtureID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("get fixture id=%s: %w", input.FixtureID, err)
	}
	if !exists {
		return prediction.Prediction{}, fmt.Errorf("%w: unknown fixture id=%s", ErrNotFound, input.FixtureID)
	}
	if fixture.NormalizeStatus(fx.Status) != fixture.StatusNotStarted {
		return prediction.Prediction{}, fmt.Errorf("%w: predictions are closed for fixture id=%s (status=%s)", ErrConflict, fx.ID, fx.Status)
	}

	existing, hasExisting, err := s.predictionRepo.GetByUserAndFixture(ctx, input.UserID, input.FixtureID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("get prediction user=%s fixture=%s: %w", input.UserID, input.FixtureID, err)
	}
	if hasExisting && !prediction.IsEditableStatus(existing.Status) {
		return prediction.Prediction{}, fmt.Errorf("%w: prediction is %s and can no longer change", ErrConflict, existing.Status)
	}

	now := s.now().UTC()
	item := prediction.Prediction{
		UserID:      input.UserID,
		FixtureID:   input.FixtureID,
		Season:      fx.Season,
		HomeGoals:   input.HomeGoals,
		AwayGoals:   input.AwayGoals,
		Status:      prediction.StatusSubmitted,
		SubmittedAt: &now,
	}
	if hasExisting {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
	} else {
		newID, idErr := s.idGen.NewID()
		if idErr != nil {
			return prediction.Prediction{}, fmt.Errorf("generate prediction id: %w", idErr)
		}
		item.ID = newID
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	saved, err := s.predictionRepo.Upsert(ctx, item)
	if err != nil {
		if errors.Is(err, prediction.ErrNotEditable) {
			return prediction.Prediction{}, fmt.Errorf("%w: prediction locked during submission", ErrConflict)
		}
		return prediction.Prediction{}, fmt.Errorf("upsert prediction user=%s fixture=%s: %w", input.UserID, input.FixtureID, err)
	}

	s.logger.InfoContext(ctx, "prediction submitted",
		"user_id", input.UserID,
		"fixture_id", input.FixtureID,
		"score", fmt.Sprintf("%d-%d", input.HomeGoals, input.AwayGoals),
	)
	return saved, nil
}

// Reset reopens the caller's submitted prediction. Allowed only while the
// fixture has not kicked off.
func (s *PredictionService) Reset(ctx context.Context, userID, fixtureID string) (prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Reset")
	defer span.End()

	userID = strings.TrimSpace(userID)
	fixtureID = strings.TrimSpace(fixtureID)
	if userID == "" || fixtureID == "" {
		return prediction.Prediction{}, fmt.Errorf("%w: user id and fixture id are required", ErrInvalidInput)
	}

	fx, exists, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("get fixture id=%s: %w", fixtureID, err)
	}
	if !exists {
		return prediction.Prediction{}, fmt.Errorf("%w: unknown fixture id=%s", ErrNotFound, fixtureID)
	}
	if fixture.NormalizeStatus(fx.Status) != fixture.StatusNotStarted {
		return prediction.Prediction{}, fmt.Errorf("%w: fixture id=%s already kicked off", ErrConflict, fixtureID)
	}

	item, hasItem, err := s.predictionRepo.GetByUserAndFixture(ctx, userID, fixtureID)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("get prediction user=%s fixture=%s: %w", userID, fixtureID, err)
	}
	if !hasItem {
		return prediction.Prediction{}, fmt.Errorf("%w: no prediction for fixture id=%s", ErrNotFound, fixtureID)
	}
	if prediction.NormalizeStatus(item.Status) == prediction.StatusEditable {
		return item, nil
	}
	if !prediction.IsEditableStatus(item.Status) {
		return prediction.Prediction{}, fmt.Errorf("%w: prediction is %s and cannot be reset", ErrConflict, item.Status)
	}

	moved, err := s.predictionRepo.UpdateStatus(ctx, item.ID, prediction.StatusSubmitted, prediction.StatusEditable)
	if err != nil {
		return prediction.Prediction{}, fmt.Errorf("reset prediction id=%s: %w", item.ID, err)
	}
	if !moved {
		// Lost a race with lock-at-kickoff.
		return prediction.Prediction{}, fmt.Errorf("%w: prediction id=%s changed state during reset", ErrConflict, item.ID)
	}

	item.Status = prediction.StatusEditable
	return item, nil
}

// ListMine returns the caller's predictions for a season, newest first as
// stored by the repository.
func (s *PredictionService) ListMine(ctx context.Context, userID string, season int) ([]prediction.Prediction, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.ListMine")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	items, err := s.predictionRepo.ListByUser(ctx, userID, season)
	if err != nil {
		return nil, fmt.Errorf("list predictions user=%s: %w", userID, err)
	}
	return items, nil
}

func validateSubmitInput(input SubmitPredictionInput) error {
	if strings.TrimSpace(input.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.FixtureID) == "" {
		return fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}
	if input.HomeGoals < 0 || input.AwayGoals < 0 {
		return fmt.Errorf("%w: predicted goals must not be negative", ErrInvalidInput)
	}
	if input.HomeGoals > maxPredictedGoals || input.AwayGoals > maxPredictedGoals {
		return fmt.Errorf("%w: predicted goals must not exceed %d", ErrInvalidInput, maxPredictedGoals)
	}
	return nil
}
