package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/clochehq/cloche/internal/storage"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definitions
// =============================================================================

// ShowcaseStore is the subset of repository queries the showcase service uses.
type ShowcaseStore interface {
	GetShowcase(ctx context.Context, boutiqueID uuid.UUID) (domain.Showcase, error)
	UpsertShowcase(ctx context.Context, p domain.UpsertShowcaseParams) error
	SetShowcaseImage(ctx context.Context, boutiqueID uuid.UUID, imageURL string) error
}

// ShowcaseService defines operations for the boutique's public display
// profile.
type ShowcaseService interface {
	// Get returns the boutique's showcase, or an empty one with the
	// default rating when it has never saved one.
	Get(ctx context.Context, boutiqueID uuid.UUID) (domain.Showcase, error)

	// Save upserts the showcase fields. The image is untouched.
	Save(ctx context.Context, p domain.UpsertShowcaseParams) (domain.Showcase, error)

	// SetImage stores a new showcase image and records its URL.
	SetImage(ctx context.Context, boutiqueID uuid.UUID, upload *multipart.FileHeader) (domain.Showcase, error)
}

// =============================================================================
// Implementation
// =============================================================================

type showcaseService struct {
	store   ShowcaseStore
	storage storage.Storage
	logger  *slog.Logger
}

// NewShowcaseService creates a new ShowcaseService.
func NewShowcaseService(store ShowcaseStore, st storage.Storage, logger *slog.Logger) ShowcaseService {
	return &showcaseService{
		store:   store,
		storage: st,
		logger:  logger,
	}
}

// Get returns the showcase, defaulting when absent.
func (s *showcaseService) Get(ctx context.Context, boutiqueID uuid.UUID) (domain.Showcase, error) {
	const op = "showcase.get"

	sc, err := s.store.GetShowcase(ctx, boutiqueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Showcase{
				BoutiqueID: boutiqueID,
				Rating:     domain.DefaultShowcaseRating,
			}, nil
		}
		return domain.Showcase{}, domain.Internal(err, op, "failed to fetch showcase")
	}
	return sc, nil
}

// Save upserts the showcase fields.
func (s *showcaseService) Save(ctx context.Context, p domain.UpsertShowcaseParams) (domain.Showcase, error) {
	const op = "showcase.save"

	if p.Rating == 0 {
		p.Rating = domain.DefaultShowcaseRating
	}
	if p.Rating < 0 || p.Rating > 5 {
		return domain.Showcase{}, domain.Invalid(op, "Rating must be between 0 and 5")
	}

	if err := s.store.UpsertShowcase(ctx, p); err != nil {
		return domain.Showcase{}, domain.Internal(err, op, "failed to save showcase")
	}
	return s.Get(ctx, p.BoutiqueID)
}

// SetImage stores and records a showcase image.
func (s *showcaseService) SetImage(ctx context.Context, boutiqueID uuid.UUID, upload *multipart.FileHeader) (domain.Showcase, error) {
	const op = "showcase.set_image"

	if upload == nil {
		return domain.Showcase{}, domain.Invalid(op, "Image file is required")
	}
	if err := domain.ValidateImageSize(upload.Size); err != nil {
		return domain.Showcase{}, err
	}

	file, err := upload.Open()
	if err != nil {
		return domain.Showcase{}, domain.Internal(err, op, "failed to open upload")
	}
	defer file.Close()

	fileData, err := io.ReadAll(file)
	if err != nil {
		return domain.Showcase{}, domain.Internal(err, op, "failed to read upload")
	}

	contentType := http.DetectContentType(fileData)
	if !domain.IsValidImageContentType(contentType) {
		return domain.Showcase{}, domain.Invalid(op, fmt.Sprintf("Unsupported image type: %s. Only JPEG, PNG, and WebP are supported.", contentType))
	}

	key := storage.ShowcaseImageKey(boutiqueID, upload.Filename)
	if err := s.storage.Put(ctx, key, bytes.NewReader(fileData), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     domain.MaxImageSize,
		Overwrite:   false,
		Public:      true,
	}); err != nil {
		return domain.Showcase{}, domain.Internal(err, op, "failed to store image")
	}

	url, err := s.storage.URL(ctx, key, 24*time.Hour)
	if err != nil {
		return domain.Showcase{}, domain.Internal(err, op, "failed to build image URL")
	}

	// Replace the previous image file after the new URL is recorded.
	prev, _ := s.store.GetShowcase(ctx, boutiqueID)

	if err := s.store.SetShowcaseImage(ctx, boutiqueID, url); err != nil {
		return domain.Showcase{}, domain.Internal(err, op, "failed to record image")
	}

	if prev.ImageURL != "" && prev.ImageURL != url {
		if prevKey, ok := storage.KeyFromURL(prev.ImageURL); ok {
			if err := s.storage.Delete(ctx, prevKey); err != nil {
				s.logger.Warn("failed to delete previous showcase image", "key", prevKey, "error", err)
			}
		}
	}

	return s.Get(ctx, boutiqueID)
}
