package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultShowcaseRating is the rating shown before a boutique has any.
const DefaultShowcaseRating = 5.0

// Showcase is a boutique's public display profile. It is not access-gated
// and carries no quota.
type Showcase struct {
	BoutiqueID uuid.UUID `json:"boutique_id"`
	District   string    `json:"district"`
	Area       string    `json:"area"`
	Tags       string    `json:"tags"`
	Rating     float64   `json:"rating"`
	ImageURL   string    `json:"image_url"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UpsertShowcaseParams contains parameters for saving a showcase. The image
// is uploaded separately and does not pass through here.
type UpsertShowcaseParams struct {
	BoutiqueID uuid.UUID
	District   string
	Area       string
	Tags       string
	Rating     float64
}
