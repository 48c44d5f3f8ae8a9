package infra

import (
	"context"
	"database/sql"

	"github.com/tinashem/speechai/internal/ports"
)

type usageRepo struct {
	db *sql.DB
}

func NewUsageRepo(db *sql.DB) ports.UsageRepo {
	return &usageRepo{db: db}
}

func (r *usageRepo) Record(ctx context.Context, u *ports.APIUsage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_usage (user_id, operation, language, audio_size, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, u.UserID, u.Operation, u.Language, u.AudioSize, u.Duration)
	return err
}

func (r *usageRepo) StatsByUser(ctx context.Context, userID string) (*ports.UserStats, error) {
	stats := &ports.UserStats{UserID: userID}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE operation = 'transcription'),
			COUNT(*) FILTER (WHERE operation = 'translation'),
			COUNT(*) FILTER (WHERE operation = 'textToSpeech'),
			COUNT(*) FILTER (WHERE operation = 'speechToSpeech')
		FROM api_usage
		WHERE user_id = $1
	`, userID).Scan(
		&stats.TotalTranscriptions,
		&stats.TotalTranslations,
		&stats.TotalTextToSpeech,
		&stats.TotalSpeechToSpeech,
	)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT language
		FROM api_usage
		WHERE user_id = $1 AND language != ''
		GROUP BY language
		ORDER BY COUNT(*) DESC
		LIMIT 1
	`, userID).Scan(&stats.MostUsedLanguage)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	return stats, nil
}

func (r *usageRepo) Totals(ctx context.Context) ([]ports.OperationStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT operation, COUNT(*), COALESCE(SUM(audio_size), 0)
		FROM api_usage
		GROUP BY operation
		ORDER BY operation
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.OperationStat
	for rows.Next() {
		var s ports.OperationStat
		if err := rows.Scan(&s.Operation, &s.Requests, &s.AudioSize); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *usageRepo) Daily(ctx context.Context, days int) ([]ports.DailyStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date_trunc('day', created_at) AS day, COUNT(*), COUNT(DISTINCT user_id)
		FROM api_usage
		WHERE created_at >= NOW() - ($1 || ' days')::interval
		GROUP BY day
		ORDER BY day DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ports.DailyStat
	for rows.Next() {
		var s ports.DailyStat
		if err := rows.Scan(&s.Date, &s.Requests, &s.Users); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
