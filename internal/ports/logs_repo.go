package ports

import (
	"context"
	"time"
)

type SystemLog struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Service   string    `json:"service"`
	Message   string    `json:"message"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type LogsRepo interface {
	Append(ctx context.Context, l *SystemLog) error
	List(ctx context.Context, level string, limit int) ([]SystemLog, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
