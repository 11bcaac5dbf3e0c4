// Package service contains the business logic layer.
//
// This file implements the quota service that admits or denies writes based
// on a boutique's subscription plan.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/clochehq/cloche/internal/metrics"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definitions
// =============================================================================

// QuotaStore is the subset of repository queries the quota service reads.
// Usage is always counted from rows at check time; nothing is cached or
// incrementally maintained, so counts cannot drift from the data.
type QuotaStore interface {
	GetBoutiquePlan(ctx context.Context, id uuid.UUID) (domain.Plan, error)
	CountProductsByBoutique(ctx context.Context, boutiqueID uuid.UUID) (int64, error)
	CountLeadsByBoutique(ctx context.Context, boutiqueID uuid.UUID) (int64, error)
	CountBoutiqueMessages(ctx context.Context, boutiqueID uuid.UUID) (int64, error)
}

// QuotaService defines operations for checking plan limits.
type QuotaService interface {
	// Check admits or denies one more unit of the given resource for the
	// boutique. Returns nil to admit, domain.EQUOTA to deny with the
	// plan-specific upgrade message, or domain.ENOTFOUND if the boutique
	// does not exist.
	//
	// This is a check-then-act gate: the caller performs the write after a
	// nil return, and no lock spans the count and the insert. Concurrent
	// requests can both pass the check before either write commits, so the
	// cap may be overshot by a small margin under concurrent load. That is
	// the documented contract, not a bug; callers needing a hard cap must
	// wrap count+insert in a serializable transaction.
	Check(ctx context.Context, boutiqueID uuid.UUID, resource domain.QuotaType) error

	// Usage returns current usage against every capped resource, for the
	// boutique dashboard.
	Usage(ctx context.Context, boutiqueID uuid.UUID) (*domain.PlanUsage, error)
}

// =============================================================================
// Implementation
// =============================================================================

type quotaService struct {
	store  QuotaStore
	logger *slog.Logger
}

// NewQuotaService creates a new QuotaService.
func NewQuotaService(store QuotaStore, logger *slog.Logger) QuotaService {
	return &quotaService{
		store:  store,
		logger: logger,
	}
}

// Check admits or denies one more unit of a resource.
func (s *quotaService) Check(ctx context.Context, boutiqueID uuid.UUID, resource domain.QuotaType) error {
	const op = "quota.check"

	// Resolve the plan first; a missing boutique is NotFound, never a
	// silent default to Basic.
	plan, err := s.store.GetBoutiquePlan(ctx, boutiqueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "boutique", boutiqueID.String())
		}
		return domain.Internal(err, op, "failed to resolve plan")
	}

	limit := domain.QuotaFor(plan).LimitFor(resource)

	// Unlimited plans skip the count entirely.
	if limit.IsUnlimited() {
		return nil
	}

	used, err := s.countUsage(ctx, boutiqueID, resource)
	if err != nil {
		return domain.Internal(err, op, "failed to count usage")
	}

	if !limit.Allows(used) {
		s.logger.Info("quota exceeded",
			"boutique_id", boutiqueID,
			"plan", plan,
			"resource", resource,
			"used", used,
			"limit", int64(limit),
		)
		metrics.QuotaDenials.WithLabelValues(string(resource)).Inc()
		return domain.QuotaExceeded(op, plan, resource, limit)
	}

	return nil
}

// Usage returns usage and caps for every gated resource.
func (s *quotaService) Usage(ctx context.Context, boutiqueID uuid.UUID) (*domain.PlanUsage, error) {
	const op = "quota.usage"

	plan, err := s.store.GetBoutiquePlan(ctx, boutiqueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "boutique", boutiqueID.String())
		}
		return nil, domain.Internal(err, op, "failed to resolve plan")
	}

	products, err := s.store.CountProductsByBoutique(ctx, boutiqueID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count products")
	}
	leads, err := s.store.CountLeadsByBoutique(ctx, boutiqueID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count leads")
	}
	messages, err := s.store.CountBoutiqueMessages(ctx, boutiqueID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to count messages")
	}

	quota := domain.QuotaFor(plan)
	return &domain.PlanUsage{
		Plan:         plan,
		ProductsUsed: products,
		LeadsUsed:    leads,
		MessagesUsed: messages,
		MaxProducts:  quota.MaxProducts,
		MaxLeads:     quota.MaxLeads,
		MaxMessages:  quota.MaxBoutiqueMessages,
	}, nil
}

// countUsage dispatches to the counter for the resource kind.
func (s *quotaService) countUsage(ctx context.Context, boutiqueID uuid.UUID, resource domain.QuotaType) (int64, error) {
	switch resource {
	case domain.QuotaTypeProduct:
		return s.store.CountProductsByBoutique(ctx, boutiqueID)
	case domain.QuotaTypeLead:
		return s.store.CountLeadsByBoutique(ctx, boutiqueID)
	case domain.QuotaTypeBoutiqueMessage:
		return s.store.CountBoutiqueMessages(ctx, boutiqueID)
	default:
		return 0, domain.Invalid("quota.count", "unknown resource kind")
	}
}
