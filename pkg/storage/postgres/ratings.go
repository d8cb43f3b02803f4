package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Robertorri/HopVerk1/pkg/storage"
)

// RatingRepository implements storage.RatingStore on PostgreSQL
type RatingRepository struct {
	db *sql.DB
}

// NewRatingRepository creates the repository and ensures its table exists
func NewRatingRepository(db *sql.DB) (*RatingRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	repo := &RatingRepository{db: db}
	if err := repo.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure ratings table: %w", err)
	}
	return repo, nil
}

func (r *RatingRepository) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS ratings (
		account_id UUID NOT NULL REFERENCES accounts(id),
		image_id UUID NOT NULL REFERENCES images(id),
		score INTEGER NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		PRIMARY KEY (account_id, image_id)
	);
	`
	_, err := r.db.Exec(query)
	return err
}

// UpsertRating creates or updates the rating for (account, image). The
// primary key on (account_id, image_id) guarantees exactly one row per pair;
// the latest write wins.
func (r *RatingRepository) UpsertRating(ctx context.Context, rating storage.Rating) (storage.Rating, error) {
	query := `
		INSERT INTO ratings (account_id, image_id, score, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (account_id, image_id)
		DO UPDATE SET score = EXCLUDED.score, updated_at = NOW()
		RETURNING account_id, image_id, score, created_at, updated_at
	`
	var result storage.Rating
	err := r.db.QueryRowContext(ctx, query, rating.AccountID, rating.ImageID, rating.Score).Scan(
		&result.AccountID, &result.ImageID, &result.Score, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		return storage.Rating{}, fmt.Errorf("failed to upsert rating: %w", err)
	}
	return result, nil
}

// AllScores returns every stored score in ascending order
func (r *RatingRepository) AllScores(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT score FROM ratings ORDER BY score ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	scores := make([]int, 0)
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}
	return scores, nil
}
