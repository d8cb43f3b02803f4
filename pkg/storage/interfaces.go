// Package storage defines the persistence interfaces and persisted entity
// types for the gallery, plus the sentinel errors shared by every store
// implementation. Account and session store interfaces live in pkg/auth
// next to their consumers.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated
	ErrDuplicate = errors.New("already exists")
)

// Image represents an uploaded image available for rating
type Image struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Prompt     string    `json:"prompt"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// Rating represents one account's score for one image. Exactly one rating
// exists per (account, image) pair; the latest write wins.
type Rating struct {
	AccountID string    `json:"account_id"`
	ImageID   string    `json:"image_id"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ImageStore persists image metadata
type ImageStore interface {
	CreateImage(ctx context.Context, image Image) error

	// GetImage returns the image or ErrNotFound
	GetImage(ctx context.Context, id string) (Image, error)

	// NextUnrated returns the newest image the account has not rated,
	// or ErrNotFound when none remain.
	NextUnrated(ctx context.Context, accountID string) (Image, error)
}

// RatingStore persists ratings with upsert semantics
type RatingStore interface {
	// UpsertRating creates or updates the rating for (account, image)
	// and returns the resulting record.
	UpsertRating(ctx context.Context, rating Rating) (Rating, error)

	// AllScores returns every stored score, for median computation
	AllScores(ctx context.Context) ([]int, error)
}

// ObjectStore persists image blobs in an external object store
type ObjectStore interface {
	// PutObject uploads content under the given key and returns its URL
	PutObject(ctx context.Context, key string, content io.Reader, contentType string) (string, error)
}
