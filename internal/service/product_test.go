package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/clochehq/cloche/internal/repository"
	"github.com/clochehq/cloche/internal/storage"
	"github.com/google/uuid"
)

// =============================================================================
// Product Service Tests
// =============================================================================

// fakeProductStore is an in-memory ProductStore.
type fakeProductStore struct {
	products map[uuid.UUID]domain.Product
	gallery  map[uuid.UUID][]string
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{
		products: map[uuid.UUID]domain.Product{},
		gallery:  map[uuid.UUID][]string{},
	}
}

func (f *fakeProductStore) ProductNameExists(ctx context.Context, boutiqueID uuid.UUID, name string) (bool, error) {
	for _, p := range f.products {
		if p.BoutiqueID == boutiqueID && p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProductStore) CreateProduct(ctx context.Context, p domain.CreateProductParams, imageURL string) (domain.Product, error) {
	product := domain.Product{
		ID:          uuid.New(),
		BoutiqueID:  p.BoutiqueID,
		Name:        p.Name,
		Price:       p.Price,
		Stock:       p.Stock,
		Category:    p.Category,
		Description: p.Description,
		Location:    p.Location,
		ImageURL:    imageURL,
		CreatedAt:   time.Now(),
	}
	f.products[product.ID] = product
	return product, nil
}

func (f *fakeProductStore) GetProductDetail(ctx context.Context, id uuid.UUID) (repository.ProductDetailRow, error) {
	p, ok := f.products[id]
	if !ok {
		return repository.ProductDetailRow{}, sql.ErrNoRows
	}
	return repository.ProductDetailRow{
		Product:      p,
		BoutiqueName: "Maison Cloche",
		BoutiqueCity: "Lyon",
		District:     "Presqu'île",
	}, nil
}

func (f *fakeProductStore) ListProductsByBoutique(ctx context.Context, boutiqueID uuid.UUID) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range f.products {
		if p.BoutiqueID == boutiqueID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductStore) UpdateProduct(ctx context.Context, p domain.UpdateProductParams) error {
	existing, ok := f.products[p.ID]
	if !ok {
		return sql.ErrNoRows
	}
	existing.Name = p.Name
	existing.Price = p.Price
	existing.Stock = p.Stock
	existing.Category = p.Category
	existing.Description = p.Description
	existing.Location = p.Location
	f.products[p.ID] = existing
	return nil
}

func (f *fakeProductStore) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.products[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.products, id)
	delete(f.gallery, id)
	return nil
}

func (f *fakeProductStore) GetProductPrimaryImage(ctx context.Context, id uuid.UUID) (string, error) {
	p, ok := f.products[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	return p.ImageURL, nil
}

func (f *fakeProductStore) SetProductPrimaryImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	p, ok := f.products[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.ImageURL = imageURL
	f.products[id] = p
	return nil
}

func (f *fakeProductStore) InsertProductImage(ctx context.Context, productID uuid.UUID, imageURL string) error {
	f.gallery[productID] = append(f.gallery[productID], imageURL)
	return nil
}

func (f *fakeProductStore) ListProductImages(ctx context.Context, productID uuid.UUID) ([]string, error) {
	return f.gallery[productID], nil
}

func (f *fakeProductStore) DeleteProductImage(ctx context.Context, productID uuid.UUID, imageURL string) error {
	urls := f.gallery[productID]
	for i, u := range urls {
		if u == imageURL {
			f.gallery[productID] = append(urls[:i], urls[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeProductStore) FirstProductImage(ctx context.Context, productID uuid.UUID) (string, error) {
	urls := f.gallery[productID]
	if len(urls) == 0 {
		return "", sql.ErrNoRows
	}
	return urls[0], nil
}

// fakeObjectStorage is an in-memory storage.Storage.
type fakeObjectStorage struct {
	objects map[string][]byte
	deleted []string
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: map[string][]byte{}}
}

func (f *fakeObjectStorage) Put(ctx context.Context, key string, data io.Reader, opts storage.PutOptions) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.objects[key] = b
	return nil
}

func (f *fakeObjectStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	b, ok := f.objects[key]
	if !ok {
		return nil, storage.ObjectInfo{}, storage.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(string(b))), storage.ObjectInfo{Key: key, Size: int64(len(b))}, nil
}

func (f *fakeObjectStorage) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjectStorage) URL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return "https://files.example.com/" + key, nil
}

func (f *fakeObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.objects[key]
	return ok, nil
}

type fakeThumbnailer struct{}

func (fakeThumbnailer) GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, int, int, error) {
	return []byte("thumb"), maxWidth, maxHeight, nil
}

func newProductFixture(plan domain.Plan, productsUsed int64) (*fakeProductStore, ProductService) {
	store := newFakeProductStore()
	quota := NewQuotaService(&fakeQuotaStore{plan: plan, products: productsUsed}, testLogger())
	svc := NewProductService(store, quota, newFakeObjectStorage(), fakeThumbnailer{}, testLogger())
	return store, svc
}

func TestProductAdd_BasicBoundary(t *testing.T) {
	ctx := context.Background()
	store, svc := newProductFixture(domain.PlanBasic, 2)
	boutiqueID := uuid.New()

	// Two used: the third is admitted.
	product, err := svc.Add(ctx, domain.CreateProductParams{
		BoutiqueID: boutiqueID,
		Name:       "Silk Scarf",
		Price:      49.90,
		Stock:      3,
	}, nil)
	if err != nil {
		t.Fatalf("expected third product to be admitted, got: %v", err)
	}
	if product.Category != domain.DefaultProductCategory {
		t.Errorf("expected default category, got %q", product.Category)
	}
	if len(store.products) != 1 {
		t.Errorf("expected one product row, got %d", len(store.products))
	}
}

func TestProductAdd_DeniedAtCap(t *testing.T) {
	ctx := context.Background()
	store, svc := newProductFixture(domain.PlanBasic, 3)

	_, err := svc.Add(ctx, domain.CreateProductParams{
		BoutiqueID: uuid.New(),
		Name:       "Wool Hat",
	}, nil)
	if !domain.IsQuotaExceeded(err) {
		t.Fatalf("expected quota denial at cap, got: %v", err)
	}
	want := "Your Basic plan allows only 3 products. Upgrade to add more."
	if got := domain.ErrorMessage(err); got != want {
		t.Errorf("expected message %q, got %q", want, got)
	}
	if len(store.products) != 0 {
		t.Errorf("denied add must not create a row, got %d", len(store.products))
	}
}

func TestProductAdd_PremiumUncapped(t *testing.T) {
	ctx := context.Background()
	_, svc := newProductFixture(domain.PlanPremium, 10_000)

	if _, err := svc.Add(ctx, domain.CreateProductParams{
		BoutiqueID: uuid.New(),
		Name:       "Cashmere Throw",
	}, nil); err != nil {
		t.Fatalf("premium products are uncapped, got: %v", err)
	}
}

// A boutique at its cap re-adding an existing name gets the duplicate error,
// not the quota error. The more specific failure wins.
func TestProductAdd_DuplicateNameWinsOverQuota(t *testing.T) {
	ctx := context.Background()
	store := newFakeProductStore()
	quotaStore := &fakeQuotaStore{plan: domain.PlanBasic, products: 0}
	svc := NewProductService(store, NewQuotaService(quotaStore, testLogger()), newFakeObjectStorage(), fakeThumbnailer{}, testLogger())

	boutiqueID := uuid.New()
	if _, err := svc.Add(ctx, domain.CreateProductParams{BoutiqueID: boutiqueID, Name: "Silk Scarf"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Push usage to the cap, then retry the same name.
	quotaStore.products = 3
	_, err := svc.Add(ctx, domain.CreateProductParams{BoutiqueID: boutiqueID, Name: "Silk Scarf"}, nil)
	if domain.ErrorCode(err) != domain.ECONFLICT {
		t.Fatalf("expected conflict for duplicate name even at cap, got: %v", err)
	}
	if domain.IsQuotaExceeded(err) {
		t.Error("duplicate name must not surface as a quota denial")
	}
}

func TestProductAdd_Validation(t *testing.T) {
	ctx := context.Background()
	_, svc := newProductFixture(domain.PlanBasic, 0)

	tests := []struct {
		name   string
		params domain.CreateProductParams
	}{
		{"empty name", domain.CreateProductParams{BoutiqueID: uuid.New(), Name: "  "}},
		{"negative price", domain.CreateProductParams{BoutiqueID: uuid.New(), Name: "Hat", Price: -1}},
		{"negative stock", domain.CreateProductParams{BoutiqueID: uuid.New(), Name: "Hat", Stock: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, tt.params, nil)
			if domain.ErrorCode(err) != domain.EINVALID {
				t.Errorf("expected invalid, got: %v", err)
			}
		})
	}
}

func TestProductGet_EnrichesLocation(t *testing.T) {
	ctx := context.Background()
	store, svc := newProductFixture(domain.PlanBasic, 0)

	created, err := svc.Add(ctx, domain.CreateProductParams{
		BoutiqueID: uuid.New(),
		Name:       "Silk Scarf",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.gallery[created.ID] = []string{"https://files.example.com/a.jpg"}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.BoutiqueName != "Maison Cloche" {
		t.Errorf("expected boutique name, got %q", got.BoutiqueName)
	}
	// Area is empty in the fixture: it is skipped, not joined as a blank.
	if got.StoreLocation != "Presqu'île, Lyon" {
		t.Errorf("unexpected store location: %q", got.StoreLocation)
	}
	if len(got.Gallery) != 1 {
		t.Errorf("expected gallery of 1, got %d", len(got.Gallery))
	}
}

func TestProductOwnership_NotProbeable(t *testing.T) {
	ctx := context.Background()
	_, svc := newProductFixture(domain.PlanPremium, 0)

	owner := uuid.New()
	created, err := svc.Add(ctx, domain.CreateProductParams{BoutiqueID: owner, Name: "Silk Scarf"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A different boutique sees NotFound, never Forbidden.
	err = svc.Delete(ctx, uuid.New(), created.ID)
	if domain.ErrorCode(err) != domain.ENOTFOUND {
		t.Errorf("expected not found for foreign product, got: %v", err)
	}

	_, err = svc.Update(ctx, uuid.New(), domain.UpdateProductParams{ID: created.ID, Name: "Renamed"}, nil)
	if domain.ErrorCode(err) != domain.ENOTFOUND {
		t.Errorf("expected not found for foreign update, got: %v", err)
	}

	// The owner can delete.
	if err := svc.Delete(ctx, owner, created.ID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
}

func TestDeleteImage_PromotesNextPrimary(t *testing.T) {
	ctx := context.Background()
	store, svc := newProductFixture(domain.PlanPremium, 0)

	owner := uuid.New()
	created, err := svc.Add(ctx, domain.CreateProductParams{BoutiqueID: owner, Name: "Silk Scarf"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	primary := "https://files.example.com/products/" + owner.String() + "/images/a.jpg"
	second := "https://files.example.com/products/" + owner.String() + "/images/b.jpg"
	store.gallery[created.ID] = []string{primary, second}
	if err := store.SetProductPrimaryImage(ctx, created.ID, primary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.DeleteImage(ctx, owner, created.ID, primary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.GetProductPrimaryImage(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != second {
		t.Errorf("expected second image promoted to primary, got %q", got)
	}

	// Deleting the last image clears the primary.
	if err := svc.DeleteImage(ctx, owner, created.ID, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err = store.GetProductPrimaryImage(ctx, created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected primary cleared, got %q", got)
	}
}
