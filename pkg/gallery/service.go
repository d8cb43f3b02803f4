// Package gallery implements the image gallery: uploads, per-account
// random image selection, rating upserts, and the aggregate median score.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Robertorri/HopVerk1/pkg/audit"
	"github.com/Robertorri/HopVerk1/pkg/storage"
)

// Sentinel errors classifying gallery failures
var (
	// ErrNoUnratedImages is returned when the account has rated every image
	ErrNoUnratedImages = errors.New("No unrated images found")
	// ErrImageNotFound is returned when the rated image does not exist
	ErrImageNotFound = errors.New("Image not found")
	// ErrInvalidScore is returned for scores outside {1, -1}
	ErrInvalidScore = errors.New("Invalid rating value, must be 1 or -1")
	// ErrObjectStoreUnavailable is returned when uploads are attempted
	// without a configured object store.
	ErrObjectStoreUnavailable = errors.New("image uploads are not configured")
)

// Service orchestrates gallery operations
type Service struct {
	images  storage.ImageStore
	ratings storage.RatingStore
	objects storage.ObjectStore
	audit   *audit.Recorder
	now     func() time.Time
}

// NewService builds a gallery service. objects may be nil, in which case
// uploads are rejected while rating and median queries keep working.
func NewService(images storage.ImageStore, ratings storage.RatingStore, objects storage.ObjectStore, recorder *audit.Recorder) (*Service, error) {
	if images == nil {
		return nil, fmt.Errorf("image store is required")
	}
	if ratings == nil {
		return nil, fmt.Errorf("rating store is required")
	}
	return &Service{
		images:  images,
		ratings: ratings,
		objects: objects,
		audit:   recorder,
		now:     time.Now,
	}, nil
}

// NextUnrated returns an image the account has not rated yet
func (s *Service) NextUnrated(ctx context.Context, accountID string) (storage.Image, error) {
	image, err := s.images.NextUnrated(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Image{}, ErrNoUnratedImages
		}
		return storage.Image{}, fmt.Errorf("failed to select unrated image: %w", err)
	}
	return image, nil
}

// Rate records the account's score for an image. Rating the same image
// again replaces the previous score; each (account, image) pair holds at
// most one rating.
func (s *Service) Rate(ctx context.Context, accountID, imageID string, score int) (storage.Rating, error) {
	if score != 1 && score != -1 {
		return storage.Rating{}, ErrInvalidScore
	}

	if _, err := s.images.GetImage(ctx, imageID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Rating{}, ErrImageNotFound
		}
		return storage.Rating{}, fmt.Errorf("failed to look up image: %w", err)
	}

	now := s.now()
	rating, err := s.ratings.UpsertRating(ctx, storage.Rating{
		AccountID: accountID,
		ImageID:   imageID,
		Score:     score,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return storage.Rating{}, fmt.Errorf("failed to store rating: %w", err)
	}

	s.audit.Record(ctx, &accountID, audit.ActionRateImage, fmt.Sprintf("rated image %s with %d", imageID, score))
	return rating, nil
}

// MedianScore computes the median over every stored rating score.
// An empty gallery has median 0; an even count averages the two central
// values, so the result may be fractional.
func (s *Service) MedianScore(ctx context.Context) (float64, error) {
	scores, err := s.ratings.AllScores(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load scores: %w", err)
	}
	return median(scores), nil
}

// median computes the statistical median of the given scores
func median(scores []int) float64 {
	n := len(scores)
	if n == 0 {
		return 0
	}

	sorted := make([]int, n)
	copy(sorted, scores)
	sort.Ints(sorted)

	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return (float64(sorted[n/2-1]) + float64(sorted[n/2])) / 2
}

// Upload stores the image content in the object store and registers its
// metadata. The caller must already be authorized as an administrator.
func (s *Service) Upload(ctx context.Context, uploadedBy, filename, prompt, contentType string, content io.Reader) (storage.Image, error) {
	if s.objects == nil {
		return storage.Image{}, ErrObjectStoreUnavailable
	}
	if strings.TrimSpace(prompt) == "" {
		return storage.Image{}, fmt.Errorf("prompt is required")
	}

	id := uuid.New().String()
	key := objectKey(id, filename)

	url, err := s.objects.PutObject(ctx, key, content, contentType)
	if err != nil {
		return storage.Image{}, fmt.Errorf("failed to upload image content: %w", err)
	}

	image := storage.Image{
		ID:         id,
		URL:        url,
		Prompt:     prompt,
		UploadedBy: uploadedBy,
		CreatedAt:  s.now(),
	}
	if err := s.images.CreateImage(ctx, image); err != nil {
		return storage.Image{}, fmt.Errorf("failed to register image: %w", err)
	}

	s.audit.Record(ctx, &uploadedBy, audit.ActionUploadImage, fmt.Sprintf("uploaded image %s", id))
	return image, nil
}

// objectKey derives the object store key for an image, keeping the
// original file extension when one is present.
func objectKey(id, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return "images/" + id + ext
}
