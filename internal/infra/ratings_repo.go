package infra

import (
	"context"
	"database/sql"

	"github.com/tinashem/speechai/internal/ports"
)

type ratingsRepo struct {
	db *sql.DB
}

func NewRatingsRepo(db *sql.DB) ports.RatingsRepo {
	return &ratingsRepo{db: db}
}

func (r *ratingsRepo) Create(ctx context.Context, rating *ports.Rating) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO ratings (user_id, feature, stars, comment, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id
	`, rating.UserID, rating.Feature, rating.Stars, rating.Comment).Scan(&id)
	return id, err
}

func (r *ratingsRepo) ListByUser(ctx context.Context, userID string) ([]ports.Rating, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, feature, stars, comment, created_at
		FROM ratings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []ports.Rating
	for rows.Next() {
		var rec ports.Rating
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.Feature,
			&rec.Stars,
			&rec.Comment,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		ratings = append(ratings, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ratings, nil
}

func (r *ratingsRepo) Averages(ctx context.Context) ([]ports.FeatureAverage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT feature, AVG(stars)::float8, COUNT(*)
		FROM ratings
		GROUP BY feature
		ORDER BY feature
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ports.FeatureAverage
	for rows.Next() {
		var fa ports.FeatureAverage
		if err := rows.Scan(&fa.Feature, &fa.Average, &fa.Count); err != nil {
			return nil, err
		}
		result = append(result, fa)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *ratingsRepo) Delete(ctx context.Context, id int64, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM ratings WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
