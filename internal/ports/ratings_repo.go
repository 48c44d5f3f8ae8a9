package ports

import (
	"context"
	"time"
)

type Rating struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Feature   string    `json:"feature"`
	Stars     int       `json:"stars"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type FeatureAverage struct {
	Feature string  `json:"feature"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type RatingsRepo interface {
	Create(ctx context.Context, r *Rating) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]Rating, error)
	Averages(ctx context.Context) ([]FeatureAverage, error)
	Delete(ctx context.Context, id int64, userID string) error
}
