package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a captured customer inquiry, counted against the Basic plan's lead
// cap.
type Lead struct {
	ID           uuid.UUID `json:"id"`
	BoutiqueID   uuid.UUID `json:"boutique_id"`
	CustomerName string    `json:"customer_name"`
	Contact      string    `json:"contact"`
	Message      string    `json:"message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CaptureLeadParams contains validated parameters for recording a lead.
type CaptureLeadParams struct {
	BoutiqueID   uuid.UUID
	CustomerName string
	Contact      string
	Message      string
}
