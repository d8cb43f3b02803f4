package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Robertorri/HopVerk1/pkg/storage"
)

// ImageRepository implements storage.ImageStore on PostgreSQL
type ImageRepository struct {
	db *sql.DB
}

// NewImageRepository creates the repository and ensures its table exists
func NewImageRepository(db *sql.DB) (*ImageRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	repo := &ImageRepository{db: db}
	if err := repo.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure images table: %w", err)
	}
	return repo, nil
}

func (r *ImageRepository) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS images (
		id UUID PRIMARY KEY,
		url TEXT NOT NULL,
		prompt TEXT NOT NULL,
		uploaded_by UUID NOT NULL REFERENCES accounts(id),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_images_created_at ON images(created_at DESC);
	`
	_, err := r.db.Exec(query)
	return err
}

// CreateImage inserts image metadata after the blob upload succeeded
func (r *ImageRepository) CreateImage(ctx context.Context, image storage.Image) error {
	query := `
		INSERT INTO images (id, url, prompt, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		image.ID, image.URL, image.Prompt, image.UploadedBy, image.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert image: %w", err)
	}
	return nil
}

// GetImage returns an image by id
func (r *ImageRepository) GetImage(ctx context.Context, id string) (storage.Image, error) {
	query := `
		SELECT id, url, prompt, uploaded_by, created_at
		FROM images
		WHERE id = $1
	`
	return r.scanImage(r.db.QueryRowContext(ctx, query, id))
}

// NextUnrated returns the newest image the account has not rated yet
func (r *ImageRepository) NextUnrated(ctx context.Context, accountID string) (storage.Image, error) {
	query := `
		SELECT i.id, i.url, i.prompt, i.uploaded_by, i.created_at
		FROM images i
		WHERE NOT EXISTS (
			SELECT 1 FROM ratings r
			WHERE r.image_id = i.id AND r.account_id = $1
		)
		ORDER BY i.created_at DESC
		LIMIT 1
	`
	return r.scanImage(r.db.QueryRowContext(ctx, query, accountID))
}

func (r *ImageRepository) scanImage(row *sql.Row) (storage.Image, error) {
	var image storage.Image
	err := row.Scan(&image.ID, &image.URL, &image.Prompt, &image.UploadedBy, &image.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Image{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Image{}, fmt.Errorf("failed to scan image: %w", err)
	}
	return image, nil
}
