package domain

import (
	"time"

	"github.com/google/uuid"
)

// SenderType is the closed two-value tag identifying which party authored a
// message.
type SenderType string

const (
	SenderCustomer SenderType = "customer"
	SenderBoutique SenderType = "boutique"
)

// IsValid reports whether s is one of the two known sender types.
func (s SenderType) IsValid() bool {
	return s == SenderCustomer || s == SenderBoutique
}

// Counterpart returns the other party. Used for read-marking: viewing a
// conversation marks the counterpart's messages as read.
func (s SenderType) Counterpart() SenderType {
	if s == SenderCustomer {
		return SenderBoutique
	}
	return SenderCustomer
}

// Message is a single entry in a conversation. Ordering within a
// conversation is by CreatedAt ascending. IsRead flips only in bulk, when
// the recipient views the conversation.
type Message struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	Sender         SenderType `json:"sender_type"`
	Text           string     `json:"message_text"`
	IsRead         bool       `json:"is_read"`
	CreatedAt      time.Time  `json:"created_at"`
}
