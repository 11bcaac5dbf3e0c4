// Package domain contains core business types and interfaces.
//
// This file defines the Boutique account type, the seller side of the
// marketplace. The plan field drives every quota decision and is only
// mutated through an explicit plan change.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Boutique is a seller account.
type Boutique struct {
	ID           uuid.UUID `json:"id"`
	BoutiqueName string    `json:"boutique_name"`
	OwnerName    string    `json:"owner_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	City         string    `json:"city"`
	PasswordHash string    `json:"-"`
	Plan         Plan      `json:"plan"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EffectivePlan returns the boutique's plan, defaulting to Basic when the
// stored value is empty or unrecognized.
func (b *Boutique) EffectivePlan() Plan {
	return ParsePlan(string(b.Plan))
}

// SignupBoutiqueParams contains validated parameters for creating a boutique
// account. New accounts always start on the Basic plan.
type SignupBoutiqueParams struct {
	BoutiqueName string
	OwnerName    string
	Email        string
	Phone        string
	City         string
	Password     string
}

// UpdateBoutiqueProfileParams contains parameters for updating a boutique
// profile. The plan is not part of the profile; it changes only via
// ChangePlanParams.
type UpdateBoutiqueProfileParams struct {
	ID           uuid.UUID
	BoutiqueName string
	OwnerName    string
	Email        string
	Phone        string
	City         string
}

// BoutiqueListing is a public directory entry: the boutique's display fields
// merged with its showcase, if it saved one. The password hash never crosses
// this boundary.
type BoutiqueListing struct {
	ID           uuid.UUID `json:"id"`
	BoutiqueName string    `json:"boutique_name"`
	City         string    `json:"city"`
	District     string    `json:"district,omitempty"`
	Area         string    `json:"area,omitempty"`
	Tags         string    `json:"tags,omitempty"`
	Rating       float64   `json:"rating"`
	ImageURL     string    `json:"image_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChangePlanParams carries an explicit plan change request. PaymentRef is an
// opaque confirmation reference from the payment flow; it is recorded but not
// verified here.
type ChangePlanParams struct {
	BoutiqueID   uuid.UUID
	Plan         string
	BillingCycle string
	PaymentRef   string
}
