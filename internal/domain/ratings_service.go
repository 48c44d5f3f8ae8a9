package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/tinashem/speechai/internal/notify"
	"github.com/tinashem/speechai/internal/ports"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5 stars")
var ErrUnknownFeature = errors.New("unknown feature")

var ratedFeatures = map[string]bool{
	"transcription":        true,
	"transcription_stream": true,
	"translation":          true,
	"textToSpeech":         true,
	"speechToSpeech":       true,
}

type ratingsService struct {
	repo     ports.RatingsRepo
	notifier notify.Notifier
}

func NewRatingsService(repo ports.RatingsRepo, n notify.Notifier) ports.RatingsService {
	return &ratingsService{
		repo:     repo,
		notifier: n,
	}
}

func (s *ratingsService) Submit(ctx context.Context, userID, feature string, stars int, comment string) (*ports.Rating, error) {
	if stars < 1 || stars > 5 {
		return nil, ErrInvalidRating
	}
	if !ratedFeatures[feature] {
		return nil, ErrUnknownFeature
	}

	rating := &ports.Rating{
		UserID:  userID,
		Feature: feature,
		Stars:   stars,
		Comment: comment,
	}
	id, err := s.repo.Create(ctx, rating)
	if err != nil {
		s.notifier.Notify(ctx, err,
			fmt.Sprintf("failed to save rating: user=%s feature=%s", userID, feature))
		return nil, err
	}
	rating.ID = id
	return rating, nil
}

func (s *ratingsService) ListByUser(ctx context.Context, userID string) ([]ports.Rating, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *ratingsService) Averages(ctx context.Context) ([]ports.FeatureAverage, error) {
	return s.repo.Averages(ctx)
}

func (s *ratingsService) Delete(ctx context.Context, id int64, userID string) error {
	return s.repo.Delete(ctx, id, userID)
}
