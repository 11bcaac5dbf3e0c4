package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/clochehq/cloche/internal/metrics"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definitions
// =============================================================================

// LeadStore is the subset of repository queries the lead service uses.
type LeadStore interface {
	CreateLead(ctx context.Context, p domain.CaptureLeadParams) (domain.Lead, error)
	ListLeadsByBoutique(ctx context.Context, boutiqueID uuid.UUID) ([]domain.Lead, error)
}

// LeadService defines operations for capturing customer inquiries.
type LeadService interface {
	// Capture records an inquiry against the boutique's lead quota. The
	// quota belongs to the receiving boutique; the customer submitting the
	// inquiry is told the boutique cannot take more leads, same as the
	// boutique would be.
	Capture(ctx context.Context, p domain.CaptureLeadParams) (domain.Lead, error)

	// ListByBoutique returns the boutique's captured leads, newest first.
	ListByBoutique(ctx context.Context, boutiqueID uuid.UUID) ([]domain.Lead, error)
}

// =============================================================================
// Implementation
// =============================================================================

type leadService struct {
	store  LeadStore
	quota  QuotaService
	logger *slog.Logger
}

// NewLeadService creates a new LeadService.
func NewLeadService(store LeadStore, quota QuotaService, logger *slog.Logger) LeadService {
	return &leadService{
		store:  store,
		quota:  quota,
		logger: logger,
	}
}

// Capture records an inquiry.
func (s *leadService) Capture(ctx context.Context, p domain.CaptureLeadParams) (domain.Lead, error) {
	const op = "lead.capture"

	p.CustomerName = strings.TrimSpace(p.CustomerName)
	p.Contact = strings.TrimSpace(p.Contact)
	if p.CustomerName == "" {
		return domain.Lead{}, domain.Invalid(op, "Customer name is required")
	}
	if p.Contact == "" {
		return domain.Lead{}, domain.Invalid(op, "Contact is required")
	}

	if err := s.quota.Check(ctx, p.BoutiqueID, domain.QuotaTypeLead); err != nil {
		return domain.Lead{}, err
	}

	lead, err := s.store.CreateLead(ctx, p)
	if err != nil {
		return domain.Lead{}, domain.Internal(err, op, "failed to create lead")
	}

	s.logger.Info("lead captured", "lead_id", lead.ID, "boutique_id", lead.BoutiqueID)
	metrics.LeadsCaptured.Inc()
	return lead, nil
}

// ListByBoutique returns the boutique's leads.
func (s *leadService) ListByBoutique(ctx context.Context, boutiqueID uuid.UUID) ([]domain.Lead, error) {
	const op = "lead.list"

	leads, err := s.store.ListLeadsByBoutique(ctx, boutiqueID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list leads")
	}
	return leads, nil
}
