// Package handler contains HTTP handlers for the Cloche marketplace API.
//
// This file implements lead capture handlers.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/clochehq/cloche/internal/service"
)

// =============================================================================
// Handler Configuration
// =============================================================================

// LeadHandler handles lead HTTP requests.
type LeadHandler struct {
	leads  service.LeadService
	logger *slog.Logger
}

// NewLeadHandler creates a new LeadHandler.
func NewLeadHandler(leads service.LeadService, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{
		leads:  leads,
		logger: logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers all lead routes with the provided mux.
//
// Routes:
// - POST /api/leads/capture            -> Capture
// - GET  /api/leads/list/{boutiqueID}  -> List
func (h *LeadHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/leads/capture", h.Capture)
	mux.HandleFunc("GET /api/leads/list/{boutiqueID}", h.List)
}

// =============================================================================
// Handlers
// =============================================================================

type captureLeadRequest struct {
	BoutiqueID   string `json:"boutique_id"`
	CustomerName string `json:"customer_name"`
	Contact      string `json:"contact"`
	Message      string `json:"message"`
}

// Capture records a customer inquiry against the boutique's lead quota.
func (h *LeadHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req captureLeadRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	boutiqueID, err := parseUUIDField(req.BoutiqueID, "boutique_id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	lead, err := h.leads.Capture(r.Context(), domain.CaptureLeadParams{
		BoutiqueID:   boutiqueID,
		CustomerName: req.CustomerName,
		Contact:      req.Contact,
		Message:      req.Message,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, lead)
}

// List returns the boutique's captured leads, newest first.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	boutiqueID, err := pathUUID(r, "boutiqueID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	leads, err := h.leads.ListByBoutique(r.Context(), boutiqueID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if leads == nil {
		leads = []domain.Lead{}
	}
	respondJSON(w, http.StatusOK, leads)
}
