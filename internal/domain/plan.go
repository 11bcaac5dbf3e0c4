// Package domain contains core business types and interfaces.
//
// This file defines subscription plans and the quota limits attached to them.
package domain

import (
	"fmt"
	"strings"
)

// Plan is a boutique's subscription tier. It is the sole driver of quota
// decisions: products, leads, and boutique-sent messages are all capped
// per plan.
type Plan string

const (
	PlanBasic        Plan = "Basic"
	PlanProfessional Plan = "Professional"
	PlanPremium      Plan = "Premium"
)

// ParsePlan resolves a stored plan value to a known Plan. Matching is
// case-insensitive and ignores surrounding whitespace. Empty or unrecognized
// values fall back to Basic, matching how legacy rows without a plan behave.
func ParsePlan(s string) Plan {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "professional":
		return PlanProfessional
	case "premium":
		return PlanPremium
	default:
		return PlanBasic
	}
}

// ValidPlan reports whether s names a known plan (case-insensitive).
// Unlike ParsePlan it does not fall back; use it when the caller supplied
// the plan explicitly (e.g. an upgrade request).
func ValidPlan(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic", "professional", "premium":
		return true
	}
	return false
}

// QuotaType identifies the resource a quota check applies to.
type QuotaType string

const (
	QuotaTypeProduct         QuotaType = "product"
	QuotaTypeLead            QuotaType = "lead"
	QuotaTypeBoutiqueMessage QuotaType = "boutique_message"
)

// Limit is a per-plan resource cap. Unlimited is a distinct sentinel, not a
// large number: comparisons against it always admit.
type Limit int64

// Unlimited marks a resource with no cap under the plan.
const Unlimited Limit = -1

// IsUnlimited reports whether the limit is the Unlimited sentinel.
func (l Limit) IsUnlimited() bool {
	return l == Unlimited
}

// Allows reports whether one more unit may be admitted given current usage.
func (l Limit) Allows(used int64) bool {
	return l == Unlimited || used < int64(l)
}

// PlanQuota holds the resource caps for one plan.
type PlanQuota struct {
	MaxProducts         Limit
	MaxLeads            Limit
	MaxBoutiqueMessages Limit
}

// planQuotas maps plans to their caps. Basic is tightly limited; Premium is
// uncapped everywhere.
var planQuotas = map[Plan]PlanQuota{
	PlanBasic: {
		MaxProducts:         3,
		MaxLeads:            5,
		MaxBoutiqueMessages: 5,
	},
	PlanProfessional: {
		MaxProducts:         20,
		MaxLeads:            Unlimited,
		MaxBoutiqueMessages: Unlimited,
	},
	PlanPremium: {
		MaxProducts:         Unlimited,
		MaxLeads:            Unlimited,
		MaxBoutiqueMessages: Unlimited,
	},
}

// QuotaFor returns the quota for a plan, defaulting to Basic for unknown plans.
func QuotaFor(plan Plan) PlanQuota {
	if q, ok := planQuotas[plan]; ok {
		return q
	}
	return planQuotas[PlanBasic]
}

// LimitFor returns the cap for a single resource kind.
func (q PlanQuota) LimitFor(t QuotaType) Limit {
	switch t {
	case QuotaTypeProduct:
		return q.MaxProducts
	case QuotaTypeLead:
		return q.MaxLeads
	case QuotaTypeBoutiqueMessage:
		return q.MaxBoutiqueMessages
	default:
		return 0
	}
}

// QuotaDenyMessage builds the upgrade prompt shown when a quota check denies
// a write. The wording per resource is part of the API contract.
func QuotaDenyMessage(plan Plan, t QuotaType, limit Limit) string {
	switch t {
	case QuotaTypeBoutiqueMessage:
		return fmt.Sprintf("Your %s plan allows only %d sent messages. Upgrade to continue.", plan, limit)
	case QuotaTypeLead:
		return fmt.Sprintf("Your %s plan allows only %d leads. Upgrade to receive more.", plan, limit)
	default:
		return fmt.Sprintf("Your %s plan allows only %d products. Upgrade to add more.", plan, limit)
	}
}

// PlanUsage reports current usage against each capped resource, for the
// boutique dashboard.
type PlanUsage struct {
	Plan         Plan  `json:"plan"`
	ProductsUsed int64 `json:"productsUsed"`
	LeadsUsed    int64 `json:"leadsUsed"`
	MessagesUsed int64 `json:"messagesUsed"`
	MaxProducts  Limit `json:"maxProducts"`
	MaxLeads     Limit `json:"maxLeads"`
	MaxMessages  Limit `json:"maxMessages"`
}
