// Package handler contains HTTP handlers for the Cloche marketplace API.
//
// This file implements catalog handlers: adding, listing, editing, and
// deleting products and their gallery images.
package handler

import (
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/clochehq/cloche/internal/service"
)

// maxProductForm caps a product multipart form: gallery uploads plus fields.
const maxProductForm = (domain.MaxProductImages + 1) * domain.MaxImageSize

// =============================================================================
// Handler Configuration
// =============================================================================

// ProductHandler handles catalog HTTP requests.
type ProductHandler struct {
	products service.ProductService
	logger   *slog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers all catalog routes with the provided mux.
//
// Routes:
// - POST   /api/products/add                    -> Add (multipart)
// - GET    /api/products/{productID}            -> Get
// - GET    /api/products/boutique/{boutiqueID}  -> ListByBoutique
// - PUT    /api/products/{productID}            -> Update (multipart)
// - DELETE /api/products/{productID}            -> Delete
// - POST   /api/products/delete-image           -> DeleteImage
func (h *ProductHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/products/add", h.Add)
	mux.HandleFunc("GET /api/products/{productID}", h.Get)
	mux.HandleFunc("GET /api/products/boutique/{boutiqueID}", h.ListByBoutique)
	mux.HandleFunc("PUT /api/products/{productID}", h.Update)
	mux.HandleFunc("DELETE /api/products/{productID}", h.Delete)
	mux.HandleFunc("POST /api/products/delete-image", h.DeleteImage)
}

// =============================================================================
// POST /api/products/add
// =============================================================================

// Add creates a product from a multipart form. Form fields mirror the JSON
// names; up to 10 files under "images".
func (h *ProductHandler) Add(w http.ResponseWriter, r *http.Request) {
	form, uploads, err := h.parseProductForm(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	boutiqueID, err := parseUUIDField(form.boutiqueID, "boutique_id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	product, err := h.products.Add(r.Context(), domain.CreateProductParams{
		BoutiqueID:  boutiqueID,
		Name:        form.name,
		Price:       form.price,
		Stock:       form.stock,
		Category:    form.category,
		Description: form.description,
		Location:    form.location,
	}, uploads)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

// =============================================================================
// GET /api/products/{productID}
// =============================================================================

// Get returns a product with gallery and boutique context.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	product, err := h.products.Get(r.Context(), productID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// =============================================================================
// GET /api/products/boutique/{boutiqueID}
// =============================================================================

// ListByBoutique returns the boutique's catalog.
func (h *ProductHandler) ListByBoutique(w http.ResponseWriter, r *http.Request) {
	boutiqueID, err := pathUUID(r, "boutiqueID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	products, err := h.products.ListByBoutique(r.Context(), boutiqueID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

// =============================================================================
// PUT /api/products/{productID}
// =============================================================================

// Update edits a product from a multipart form; uploads append to the gallery.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	form, uploads, err := h.parseProductForm(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	boutiqueID, err := parseUUIDField(form.boutiqueID, "boutique_id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	product, err := h.products.Update(r.Context(), boutiqueID, domain.UpdateProductParams{
		ID:          productID,
		Name:        form.name,
		Price:       form.price,
		Stock:       form.stock,
		Category:    form.category,
		Description: form.description,
		Location:    form.location,
	}, uploads)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// =============================================================================
// DELETE /api/products/{productID}
// =============================================================================

// Delete removes a product. The owning boutique is named in the boutique_id
// query parameter.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	boutiqueID, err := parseUUIDField(r.URL.Query().Get("boutique_id"), "boutique_id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.products.Delete(r.Context(), boutiqueID, productID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// POST /api/products/delete-image
// =============================================================================

type deleteImageRequest struct {
	BoutiqueID string `json:"boutique_id"`
	ProductID  string `json:"product_id"`
	ImageURL   string `json:"image_url"`
}

// DeleteImage removes one gallery image.
func (h *ProductHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	var req deleteImageRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	boutiqueID, err := parseUUIDField(req.BoutiqueID, "boutique_id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	productID, err := parseUUIDField(req.ProductID, "product_id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.products.DeleteImage(r.Context(), boutiqueID, productID, req.ImageURL); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "image deleted"})
}

// =============================================================================
// Helper Functions
// =============================================================================

type productForm struct {
	boutiqueID  string
	name        string
	price       float64
	stock       int
	category    string
	description string
	location    string
}

// parseProductForm reads the multipart product fields and gallery uploads.
func (h *ProductHandler) parseProductForm(r *http.Request) (productForm, []*multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxProductForm); err != nil {
		return productForm{}, nil, domain.Invalid("", "Failed to parse form")
	}

	form := productForm{
		boutiqueID:  r.FormValue("boutique_id"),
		name:        r.FormValue("product_name"),
		category:    r.FormValue("category"),
		description: r.FormValue("description"),
		location:    r.FormValue("location"),
	}

	if v := r.FormValue("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return productForm{}, nil, domain.Invalid("", "Invalid price")
		}
		form.price = price
	}
	if v := r.FormValue("stock"); v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil {
			return productForm{}, nil, domain.Invalid("", "Invalid stock")
		}
		form.stock = stock
	}

	var uploads []*multipart.FileHeader
	if r.MultipartForm != nil {
		uploads = r.MultipartForm.File["images"]
	}
	return form, uploads, nil
}
