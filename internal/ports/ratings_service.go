package ports

import "context"

type RatingsService interface {
	Submit(ctx context.Context, userID, feature string, stars int, comment string) (*Rating, error)
	ListByUser(ctx context.Context, userID string) ([]Rating, error)
	Averages(ctx context.Context) ([]FeatureAverage, error)
	Delete(ctx context.Context, id int64, userID string) error
}
