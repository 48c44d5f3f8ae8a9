package ports

import (
	"context"
	"time"
)

type APIUsage struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Operation string    `json:"operation"`
	Language  string    `json:"language,omitempty"`
	AudioSize int64     `json:"audioSize,omitempty"`
	Duration  int64     `json:"durationMs,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserStats struct {
	UserID              string `json:"userId"`
	TotalTranscriptions int    `json:"totalTranscriptions"`
	TotalTranslations   int    `json:"totalTranslations"`
	TotalTextToSpeech   int    `json:"totalTextToSpeech"`
	TotalSpeechToSpeech int    `json:"totalSpeechToSpeech"`
	MostUsedLanguage    string `json:"mostUsedLanguage"`
}

// OperationStat is an all-time aggregate for one operation.
type OperationStat struct {
	Operation string `json:"operation"`
	Requests  int64  `json:"requests"`
	AudioSize int64  `json:"audioSize"`
}

// DailyStat is the request volume for one calendar day.
type DailyStat struct {
	Date     time.Time `json:"date"`
	Requests int64     `json:"requests"`
	Users    int64     `json:"users"`
}

type UsageRepo interface {
	Record(ctx context.Context, u *APIUsage) error
	StatsByUser(ctx context.Context, userID string) (*UserStats, error)
	Totals(ctx context.Context) ([]OperationStat, error)
	Daily(ctx context.Context, days int) ([]DailyStat, error)
}
