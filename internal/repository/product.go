package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/google/uuid"
)

const productColumns = `id, boutique_id, product_name, price, stock, category, description, location, image_url, created_at`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	var description, location, imageURL sql.NullString
	err := row.Scan(&p.ID, &p.BoutiqueID, &p.Name, &p.Price, &p.Stock, &p.Category, &description, &location, &imageURL, &p.CreatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	p.Description = strVal(description)
	p.Location = strVal(location)
	p.ImageURL = strVal(imageURL)
	return p, nil
}

// ProductNameExists reports whether the boutique already has a product with
// this name. Used for the duplicate check ahead of the quota check.
func (q *Queries) ProductNameExists(ctx context.Context, boutiqueID uuid.UUID, name string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM products WHERE boutique_id = $1 AND product_name = $2)`
	var exists bool
	err := q.db.QueryRowContext(ctx, query, boutiqueID, name).Scan(&exists)
	return exists, err
}

// CountProductsByBoutique counts the boutique's catalog entries. This is the
// usage figure for the product quota, derived at read time.
func (q *Queries) CountProductsByBoutique(ctx context.Context, boutiqueID uuid.UUID) (int64, error) {
	const query = `SELECT COUNT(*) FROM products WHERE boutique_id = $1`
	var count int64
	err := q.db.QueryRowContext(ctx, query, boutiqueID).Scan(&count)
	return count, err
}

// CreateProduct inserts a catalog entry. imageURL is the primary image and
// may be empty when no images were uploaded.
func (q *Queries) CreateProduct(ctx context.Context, p domain.CreateProductParams, imageURL string) (domain.Product, error) {
	const query = `
		INSERT INTO products (id, boutique_id, product_name, price, stock, category, description, location, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + productColumns
	row := q.db.QueryRowContext(ctx, query,
		uuid.New(), p.BoutiqueID, p.Name, p.Price, p.Stock, p.Category,
		nullStr(p.Description), nullStr(p.Location), nullStr(imageURL), time.Now().UTC())
	return scanProduct(row)
}

// ProductDetailRow carries a product together with the boutique and showcase
// fields used to enrich the detail view.
type ProductDetailRow struct {
	Product        domain.Product
	BoutiqueName   string
	BoutiqueCity   string
	Area           string
	District       string
	ShowcaseRating float64
	ShowcaseTags   string
	ShowcaseImage  string
	HasRating      bool
}

// GetProductDetail fetches a product joined with its boutique and showcase.
func (q *Queries) GetProductDetail(ctx context.Context, id uuid.UUID) (ProductDetailRow, error) {
	const query = `
		SELECT p.id, p.boutique_id, p.product_name, p.price, p.stock, p.category, p.description, p.location, p.image_url, p.created_at,
		       b.boutique_name, b.city,
		       s.area, s.district, s.rating, s.tags, s.image_url
		FROM products p
		JOIN boutiques b ON b.id = p.boutique_id
		LEFT JOIN boutique_showcase s ON s.boutique_id = b.id
		WHERE p.id = $1`
	var r ProductDetailRow
	var description, location, imageURL sql.NullString
	var city, area, district, tags, showcaseImage sql.NullString
	var rating sql.NullFloat64
	err := q.db.QueryRowContext(ctx, query, id).Scan(
		&r.Product.ID, &r.Product.BoutiqueID, &r.Product.Name, &r.Product.Price, &r.Product.Stock,
		&r.Product.Category, &description, &location, &imageURL, &r.Product.CreatedAt,
		&r.BoutiqueName, &city,
		&area, &district, &rating, &tags, &showcaseImage)
	if err != nil {
		return ProductDetailRow{}, err
	}
	r.Product.Description = strVal(description)
	r.Product.Location = strVal(location)
	r.Product.ImageURL = strVal(imageURL)
	r.BoutiqueCity = strVal(city)
	r.Area = strVal(area)
	r.District = strVal(district)
	r.ShowcaseTags = strVal(tags)
	r.ShowcaseImage = strVal(showcaseImage)
	r.HasRating = rating.Valid
	if rating.Valid {
		r.ShowcaseRating = rating.Float64
	} else {
		r.ShowcaseRating = domain.DefaultShowcaseRating
	}
	return r, nil
}

// ListProductsByBoutique returns the boutique's catalog, newest first.
func (q *Queries) ListProductsByBoutique(ctx context.Context, boutiqueID uuid.UUID) ([]domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE boutique_id = $1 ORDER BY created_at DESC`
	rows, err := q.db.QueryContext(ctx, query, boutiqueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct updates a product's editable fields.
func (q *Queries) UpdateProduct(ctx context.Context, p domain.UpdateProductParams) error {
	const query = `
		UPDATE products
		SET product_name = $2, price = $3, stock = $4, category = $5, description = $6, location = $7
		WHERE id = $1`
	res, err := q.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Price, p.Stock, p.Category, nullStr(p.Description), nullStr(p.Location))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteProduct removes a product. Gallery rows cascade via the foreign key.
func (q *Queries) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM products WHERE id = $1`
	res, err := q.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// GetProductPrimaryImage returns the product's primary image URL, "" if unset.
func (q *Queries) GetProductPrimaryImage(ctx context.Context, id uuid.UUID) (string, error) {
	const query = `SELECT image_url FROM products WHERE id = $1`
	var imageURL sql.NullString
	if err := q.db.QueryRowContext(ctx, query, id).Scan(&imageURL); err != nil {
		return "", err
	}
	return strVal(imageURL), nil
}

// SetProductPrimaryImage sets (or clears, with "") the primary image URL.
func (q *Queries) SetProductPrimaryImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	const query = `UPDATE products SET image_url = $2 WHERE id = $1`
	_, err := q.db.ExecContext(ctx, query, id, nullStr(imageURL))
	return err
}

// InsertProductImage appends a gallery image to a product.
func (q *Queries) InsertProductImage(ctx context.Context, productID uuid.UUID, imageURL string) error {
	const query = `INSERT INTO product_images (id, product_id, image_url, created_at) VALUES ($1, $2, $3, $4)`
	_, err := q.db.ExecContext(ctx, query, uuid.New(), productID, imageURL, time.Now().UTC())
	return err
}

// ListProductImages returns the product's gallery URLs in insertion order.
func (q *Queries) ListProductImages(ctx context.Context, productID uuid.UUID) ([]string, error) {
	const query = `SELECT image_url FROM product_images WHERE product_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := q.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

// DeleteProductImage removes one gallery row by URL.
func (q *Queries) DeleteProductImage(ctx context.Context, productID uuid.UUID, imageURL string) error {
	const query = `DELETE FROM product_images WHERE product_id = $1 AND image_url = $2`
	_, err := q.db.ExecContext(ctx, query, productID, imageURL)
	return err
}

// FirstProductImage returns any remaining gallery image for a product, for
// reassigning the primary image after a deletion. Returns sql.ErrNoRows when
// the gallery is empty.
func (q *Queries) FirstProductImage(ctx context.Context, productID uuid.UUID) (string, error) {
	const query = `SELECT image_url FROM product_images WHERE product_id = $1 ORDER BY created_at ASC, id ASC LIMIT 1`
	var url string
	err := q.db.QueryRowContext(ctx, query, productID).Scan(&url)
	return url, err
}
