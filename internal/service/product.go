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
	"strings"
	"time"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/clochehq/cloche/internal/metrics"
	"github.com/clochehq/cloche/internal/repository"
	"github.com/clochehq/cloche/internal/storage"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definitions
// =============================================================================

// ProductStore is the subset of repository queries the product service uses.
type ProductStore interface {
	ProductNameExists(ctx context.Context, boutiqueID uuid.UUID, name string) (bool, error)
	CreateProduct(ctx context.Context, p domain.CreateProductParams, imageURL string) (domain.Product, error)
	GetProductDetail(ctx context.Context, id uuid.UUID) (repository.ProductDetailRow, error)
	ListProductsByBoutique(ctx context.Context, boutiqueID uuid.UUID) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, p domain.UpdateProductParams) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProductPrimaryImage(ctx context.Context, id uuid.UUID) (string, error)
	SetProductPrimaryImage(ctx context.Context, id uuid.UUID, imageURL string) error
	InsertProductImage(ctx context.Context, productID uuid.UUID, imageURL string) error
	ListProductImages(ctx context.Context, productID uuid.UUID) ([]string, error)
	DeleteProductImage(ctx context.Context, productID uuid.UUID, imageURL string) error
	FirstProductImage(ctx context.Context, productID uuid.UUID) (string, error)
}

// ProductService defines operations for managing a boutique's catalog.
type ProductService interface {
	// Add creates a catalog entry with optional gallery uploads. The checks
	// run in a fixed order: duplicate name first, then the plan quota, so a
	// boutique at its cap still gets the duplicate error for a name it
	// already uses. The first uploaded image becomes the primary image;
	// gallery rows are best effort and never fail the add.
	Add(ctx context.Context, p domain.CreateProductParams, uploads []*multipart.FileHeader) (domain.Product, error)

	// Get fetches a product with its gallery, boutique name, and store
	// location.
	Get(ctx context.Context, id uuid.UUID) (domain.Product, error)

	// ListByBoutique returns the boutique's catalog with galleries, newest
	// first.
	ListByBoutique(ctx context.Context, boutiqueID uuid.UUID) ([]domain.Product, error)

	// Update edits a product's fields and appends any uploads to its
	// gallery. The boutique must own the product.
	Update(ctx context.Context, boutiqueID uuid.UUID, p domain.UpdateProductParams, uploads []*multipart.FileHeader) (domain.Product, error)

	// Delete removes a product the boutique owns. Gallery rows cascade.
	Delete(ctx context.Context, boutiqueID, productID uuid.UUID) error

	// DeleteImage removes one gallery image. If it was the primary image,
	// the oldest remaining gallery image is promoted, or the primary is
	// cleared when the gallery is empty.
	DeleteImage(ctx context.Context, boutiqueID, productID uuid.UUID, imageURL string) error
}

// =============================================================================
// Implementation
// =============================================================================

type productService struct {
	store   ProductStore
	quota   QuotaService
	storage storage.Storage
	thumbs  ThumbnailProcessor
	logger  *slog.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(
	store ProductStore,
	quota QuotaService,
	st storage.Storage,
	thumbs ThumbnailProcessor,
	logger *slog.Logger,
) ProductService {
	return &productService{
		store:   store,
		quota:   quota,
		storage: st,
		thumbs:  thumbs,
		logger:  logger,
	}
}

// Add creates a catalog entry.
func (s *productService) Add(ctx context.Context, p domain.CreateProductParams, uploads []*multipart.FileHeader) (domain.Product, error) {
	const op = "product.add"

	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return domain.Product{}, domain.Invalid(op, "Product name is required")
	}
	if p.Price < 0 {
		return domain.Product{}, domain.Invalid(op, "Price cannot be negative")
	}
	if p.Stock < 0 {
		return domain.Product{}, domain.Invalid(op, "Stock cannot be negative")
	}
	if p.Category == "" {
		p.Category = domain.DefaultProductCategory
	}
	if len(uploads) > domain.MaxProductImages {
		return domain.Product{}, domain.Invalid(op, fmt.Sprintf("At most %d images per product", domain.MaxProductImages))
	}

	// Duplicate check runs before the quota check: a name collision is the
	// more specific error and must win even at the cap.
	exists, err := s.store.ProductNameExists(ctx, p.BoutiqueID, p.Name)
	if err != nil {
		return domain.Product{}, domain.Internal(err, op, "failed to check product name")
	}
	if exists {
		return domain.Product{}, domain.Conflict(op, "Product with this name already exists")
	}

	if err := s.quota.Check(ctx, p.BoutiqueID, domain.QuotaTypeProduct); err != nil {
		return domain.Product{}, err
	}

	urls, err := s.uploadImages(ctx, p.BoutiqueID, uploads)
	if err != nil {
		return domain.Product{}, err
	}

	primary := ""
	if len(urls) > 0 {
		primary = urls[0]
	}

	product, err := s.store.CreateProduct(ctx, p, primary)
	if err != nil {
		for _, u := range urls {
			s.deleteByURL(ctx, u)
		}
		return domain.Product{}, domain.Internal(err, op, "failed to create product")
	}

	// Gallery rows are best effort. The product row is committed; a failed
	// gallery insert loses one entry, not the product.
	product.Gallery = make([]string, 0, len(urls))
	for _, u := range urls {
		if err := s.store.InsertProductImage(ctx, product.ID, u); err != nil {
			s.logger.Warn("failed to record gallery image", "product_id", product.ID, "url", u, "error", err)
			continue
		}
		product.Gallery = append(product.Gallery, u)
	}

	s.logger.Info("product created", "product_id", product.ID, "boutique_id", p.BoutiqueID, "images", len(product.Gallery))
	metrics.ProductsCreated.Inc()
	return product, nil
}

// Get fetches a product with gallery and boutique context.
func (s *productService) Get(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	const op = "product.get"

	row, err := s.store.GetProductDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.NotFound(op, "product", id.String())
		}
		return domain.Product{}, domain.Internal(err, op, "failed to fetch product")
	}

	product := row.Product
	product.BoutiqueName = row.BoutiqueName
	product.StoreLocation = storeLocation(row.Area, row.District, row.BoutiqueCity)

	gallery, err := s.store.ListProductImages(ctx, id)
	if err != nil {
		return domain.Product{}, domain.Internal(err, op, "failed to fetch gallery")
	}
	product.Gallery = gallery
	return product, nil
}

// ListByBoutique returns the boutique's catalog with galleries.
func (s *productService) ListByBoutique(ctx context.Context, boutiqueID uuid.UUID) ([]domain.Product, error) {
	const op = "product.list"

	products, err := s.store.ListProductsByBoutique(ctx, boutiqueID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list products")
	}
	for i := range products {
		gallery, err := s.store.ListProductImages(ctx, products[i].ID)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to fetch gallery")
		}
		products[i].Gallery = gallery
	}
	return products, nil
}

// Update edits a product and appends uploads to its gallery.
func (s *productService) Update(ctx context.Context, boutiqueID uuid.UUID, p domain.UpdateProductParams, uploads []*multipart.FileHeader) (domain.Product, error) {
	const op = "product.update"

	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return domain.Product{}, domain.Invalid(op, "Product name is required")
	}
	if p.Price < 0 {
		return domain.Product{}, domain.Invalid(op, "Price cannot be negative")
	}
	if p.Stock < 0 {
		return domain.Product{}, domain.Invalid(op, "Stock cannot be negative")
	}
	if p.Category == "" {
		p.Category = domain.DefaultProductCategory
	}
	if len(uploads) > domain.MaxProductImages {
		return domain.Product{}, domain.Invalid(op, fmt.Sprintf("At most %d images per product", domain.MaxProductImages))
	}

	if err := s.requireOwnership(ctx, op, boutiqueID, p.ID); err != nil {
		return domain.Product{}, err
	}

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.NotFound(op, "product", p.ID.String())
		}
		return domain.Product{}, domain.Internal(err, op, "failed to update product")
	}

	urls, err := s.uploadImages(ctx, boutiqueID, uploads)
	if err != nil {
		return domain.Product{}, err
	}
	for _, u := range urls {
		if err := s.store.InsertProductImage(ctx, p.ID, u); err != nil {
			s.logger.Warn("failed to record gallery image", "product_id", p.ID, "url", u, "error", err)
		}
	}

	// Promote the first upload to primary when the product had none.
	if len(urls) > 0 {
		primary, err := s.store.GetProductPrimaryImage(ctx, p.ID)
		if err == nil && primary == "" {
			if err := s.store.SetProductPrimaryImage(ctx, p.ID, urls[0]); err != nil {
				s.logger.Warn("failed to set primary image", "product_id", p.ID, "error", err)
			}
		}
	}

	return s.Get(ctx, p.ID)
}

// Delete removes a product the boutique owns.
func (s *productService) Delete(ctx context.Context, boutiqueID, productID uuid.UUID) error {
	const op = "product.delete"

	if err := s.requireOwnership(ctx, op, boutiqueID, productID); err != nil {
		return err
	}

	// Remove stored files first; orphaned rows are worse than orphaned
	// files, so storage failures only log.
	gallery, err := s.store.ListProductImages(ctx, productID)
	if err == nil {
		for _, u := range gallery {
			s.deleteByURL(ctx, u)
		}
	}

	if err := s.store.DeleteProduct(ctx, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "product", productID.String())
		}
		return domain.Internal(err, op, "failed to delete product")
	}
	return nil
}

// DeleteImage removes one gallery image and repairs the primary image.
func (s *productService) DeleteImage(ctx context.Context, boutiqueID, productID uuid.UUID, imageURL string) error {
	const op = "product.delete_image"

	if imageURL == "" {
		return domain.Invalid(op, "Image URL is required")
	}
	if err := s.requireOwnership(ctx, op, boutiqueID, productID); err != nil {
		return err
	}

	if err := s.store.DeleteProductImage(ctx, productID, imageURL); err != nil {
		return domain.Internal(err, op, "failed to delete gallery image")
	}
	s.deleteByURL(ctx, imageURL)

	primary, err := s.store.GetProductPrimaryImage(ctx, productID)
	if err != nil {
		return domain.Internal(err, op, "failed to fetch primary image")
	}
	if primary != imageURL {
		return nil
	}

	// The primary was deleted: promote the oldest remaining gallery image,
	// or clear the primary when none remain.
	next, err := s.store.FirstProductImage(ctx, productID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.Internal(err, op, "failed to pick replacement image")
	}
	if err := s.store.SetProductPrimaryImage(ctx, productID, next); err != nil {
		return domain.Internal(err, op, "failed to update primary image")
	}
	return nil
}

// =============================================================================
// Helper Functions
// =============================================================================

// requireOwnership verifies the product exists and belongs to the boutique.
// A foreign product reads as NotFound, never Forbidden, so ownership is not
// probeable.
func (s *productService) requireOwnership(ctx context.Context, op string, boutiqueID, productID uuid.UUID) error {
	row, err := s.store.GetProductDetail(ctx, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "product", productID.String())
		}
		return domain.Internal(err, op, "failed to fetch product")
	}
	if row.Product.BoutiqueID != boutiqueID {
		return domain.NotFound(op, "product", productID.String())
	}
	return nil
}

// uploadImages validates, stores, and thumbnails each upload, returning the
// public URLs in upload order.
func (s *productService) uploadImages(ctx context.Context, boutiqueID uuid.UUID, uploads []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(uploads))
	for _, header := range uploads {
		url, err := s.uploadImage(ctx, boutiqueID, header)
		if err != nil {
			// Roll back files already stored for this request.
			for _, u := range urls {
				s.deleteByURL(ctx, u)
			}
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *productService) uploadImage(ctx context.Context, boutiqueID uuid.UUID, header *multipart.FileHeader) (string, error) {
	const op = "product.upload"

	if err := domain.ValidateImageSize(header.Size); err != nil {
		return "", err
	}

	file, err := header.Open()
	if err != nil {
		return "", domain.Internal(err, op, "failed to open upload")
	}
	defer file.Close()

	fileData, err := io.ReadAll(file)
	if err != nil {
		return "", domain.Internal(err, op, "failed to read upload")
	}

	contentType := http.DetectContentType(fileData)
	if !domain.IsValidImageContentType(contentType) {
		return "", domain.Invalid(op, fmt.Sprintf("Unsupported image type: %s. Only JPEG, PNG, and WebP are supported.", contentType))
	}

	key := storage.ProductImageKey(boutiqueID, header.Filename)
	if err := s.storage.Put(ctx, key, bytes.NewReader(fileData), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     domain.MaxImageSize,
		Overwrite:   false,
		Public:      true,
	}); err != nil {
		return "", domain.Internal(err, op, "failed to store image")
	}

	// Thumbnails are best effort: catalog listings fall back to the
	// original when one is missing.
	if thumbBytes, _, _, err := s.thumbs.GenerateThumbnail(bytes.NewReader(fileData), domain.ThumbnailMaxWidth, domain.ThumbnailMaxHeight); err != nil {
		s.logger.Warn("failed to generate thumbnail", "key", key, "error", err)
	} else {
		thumbKey := storage.ThumbnailKeyFor(key)
		if err := s.storage.Put(ctx, thumbKey, bytes.NewReader(thumbBytes), storage.PutOptions{
			ContentType: "image/jpeg",
			Overwrite:   false,
			Public:      true,
		}); err != nil {
			s.logger.Warn("failed to store thumbnail", "key", thumbKey, "error", err)
		}
	}

	url, err := s.storage.URL(ctx, key, 24*time.Hour)
	if err != nil {
		return "", domain.Internal(err, op, "failed to build image URL")
	}
	return url, nil
}

// deleteByURL removes a stored object given its public URL. Best effort.
func (s *productService) deleteByURL(ctx context.Context, url string) {
	key, ok := storage.KeyFromURL(url)
	if !ok {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("failed to delete stored image", "key", key, "error", err)
	}
	if err := s.storage.Delete(ctx, storage.ThumbnailKeyFor(key)); err != nil {
		s.logger.Warn("failed to delete stored thumbnail", "key", key, "error", err)
	}
}

// storeLocation builds the display location from showcase and boutique
// fields, most specific first.
func storeLocation(area, district, city string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{area, district, city} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
