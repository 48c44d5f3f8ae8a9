package infra

import (
	"context"
	"database/sql"
	"time"

	"github.com/tinashem/speechai/internal/ports"
)

type logsRepo struct {
	db *sql.DB
}

func NewLogsRepo(db *sql.DB) ports.LogsRepo {
	return &logsRepo{db: db}
}

func (r *logsRepo) Append(ctx context.Context, l *ports.SystemLog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO system_logs (level, service, message, user_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, l.Level, l.Service, l.Message, l.UserID)
	return err
}

func (r *logsRepo) List(ctx context.Context, level string, limit int) ([]ports.SystemLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `
		SELECT id, level, service, message, user_id, created_at
		FROM system_logs
		ORDER BY created_at DESC
		LIMIT $1
	`
	args := []any{limit}
	if level != "" {
		query = `
			SELECT id, level, service, message, user_id, created_at
			FROM system_logs
			WHERE level = $2
			ORDER BY created_at DESC
			LIMIT $1
		`
		args = append(args, level)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []ports.SystemLog
	for rows.Next() {
		var rec ports.SystemLog
		if err := rows.Scan(
			&rec.ID,
			&rec.Level,
			&rec.Service,
			&rec.Message,
			&rec.UserID,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *logsRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM system_logs WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
