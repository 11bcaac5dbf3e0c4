// Package domain contains core business types and interfaces.
//
// This file defines the Product catalog entry and its image gallery.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry belonging to one boutique. Product names are
// unique per boutique. ImageURL is the primary image; Gallery holds every
// uploaded image including the primary.
type Product struct {
	ID          uuid.UUID `json:"id"`
	BoutiqueID  uuid.UUID `json:"boutique_id"`
	Name        string    `json:"product_name"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Computed fields, populated by queries/services.
	Gallery       []string `json:"gallery"`
	BoutiqueName  string   `json:"boutique_name,omitempty"`
	StoreLocation string   `json:"store_location,omitempty"`
}

// DefaultProductCategory is used when a product is added without a category.
const DefaultProductCategory = "Uncategorized"

// CreateProductParams contains validated parameters for adding a product.
// Image handling happens in the service; these are the row fields only.
type CreateProductParams struct {
	BoutiqueID  uuid.UUID
	Name        string
	Price       float64
	Stock       int
	Category    string
	Description string
	Location    string
}

// UpdateProductParams contains parameters for updating a product's fields.
// Uploaded images are appended to the gallery, never replaced.
type UpdateProductParams struct {
	ID          uuid.UUID
	Name        string
	Price       float64
	Stock       int
	Category    string
	Description string
	Location    string
}
