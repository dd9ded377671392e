// Package quiz serves chart samples and scores predictions.
package quiz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/internal/rating"
	"github.com/wonny/tradingquiz/pkg/logger"
)

// Notifier is told about committed rating changes. *leaderboard.Service satisfies it.
type Notifier interface {
	RatingChanged(ctx context.Context, userID string)
}

// Ranker resolves a user's leaderboard position. *leaderboard.Service satisfies it.
type Ranker interface {
	RankOf(ctx context.Context, userID string) (int, error)
}

// Service orchestrates sample selection, prediction scoring and profiles
// ⭐ SSOT: a prediction's rating change and audit record are written together here
type Service struct {
	store    contracts.Store
	notifier Notifier
	ranker   Ranker
	logger   *logger.Logger
	now      func() time.Time
}

// NewService creates a quiz service. notifier may be nil.
func NewService(store contracts.Store, notifier Notifier, ranker Ranker, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		ranker:   ranker,
		logger:   log,
		now:      time.Now,
	}
}

// RandomSample picks a sample uniformly; ErrNotAvailable when there are none.
func (s *Service) RandomSample(ctx context.Context) (*contracts.SampleView, error) {
	sample, err := s.store.Samples().Random(ctx)
	if err != nil {
		return nil, err
	}
	view := sample.View()
	return &view, nil
}

// SubmitPrediction grades guess against the sample outcome and applies the
// rating delta. The rating update and the prediction record commit together.
func (s *Service) SubmitPrediction(ctx context.Context, userID, sampleID, guess string) (*contracts.SubmitResult, error) {
	direction, err := contracts.ParseDirection(guess)
	if err != nil {
		return nil, err
	}
	if sampleID == "" {
		return nil, fmt.Errorf("%w: chart id is required", contracts.ErrInvalidInput)
	}

	var result contracts.SubmitResult
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx contracts.Tx) error {
		user, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		sample, err := tx.GetSample(ctx, sampleID)
		if err != nil {
			return err
		}

		correct := direction == sample.Outcome
		delta := rating.ScoreSinglePrediction(correct)
		newRating := rating.Apply(user.Rating, delta)

		if err := tx.UpdateRating(ctx, user.ID, newRating); err != nil {
			return fmt.Errorf("update rating: %w", err)
		}
		if err := tx.InsertPrediction(ctx, &contracts.Prediction{
			ID:               uuid.NewString(),
			UserID:           user.ID,
			SampleID:         sample.ID,
			GuessedDirection: direction,
			ActualOutcome:    sample.Outcome,
			Delta:            delta,
			CreatedAt:        s.now().UTC(),
		}); err != nil {
			return fmt.Errorf("insert prediction: %w", err)
		}

		result = contracts.SubmitResult{Correct: correct, Delta: delta, NewRating: newRating}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":    userID,
		"sample_id":  sampleID,
		"correct":    result.Correct,
		"delta":      result.Delta,
		"new_rating": result.NewRating,
	}).Info("Prediction scored")

	if s.notifier != nil {
		s.notifier.RatingChanged(ctx, userID)
	}
	return &result, nil
}

// Profile returns the user's statistics and leaderboard rank.
func (s *Service) Profile(ctx context.Context, userID string) (*contracts.Profile, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.Predictions().StatsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("prediction stats: %w", err)
	}
	rank, err := s.ranker.RankOf(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}

	return &contracts.Profile{
		ID:                 user.ID,
		Username:           user.Username,
		EloScore:           user.Rating,
		TotalQuizzes:       stats.Total,
		CorrectPredictions: stats.Correct,
		WinRate:            stats.WinRate(),
		Rank:               rank,
	}, nil
}
