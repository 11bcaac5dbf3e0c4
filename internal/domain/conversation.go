// Package domain contains core business types and interfaces.
//
// This file defines the Conversation thread between one customer and one
// boutique about zero-or-one named product, and the derived inbox summary.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConversationStatus is the lifecycle state of a conversation.
type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "active"
	ConversationArchived ConversationStatus = "archived"
	ConversationClosed   ConversationStatus = "closed"
)

// IsValid reports whether s is one of the known statuses.
func (s ConversationStatus) IsValid() bool {
	switch s {
	case ConversationActive, ConversationArchived, ConversationClosed:
		return true
	}
	return false
}

// Conversation is a message thread. The practical uniqueness key is
// (boutique_id, customer_email, product_name): repeated contact attempts for
// the same product reuse the same thread, a different product starts a new
// one. ProductName is always stored normalized; the empty string means the
// conversation is not about a specific product.
type Conversation struct {
	ID            uuid.UUID          `json:"id"`
	BoutiqueID    uuid.UUID          `json:"boutique_id"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	CustomerPhone string             `json:"customer_phone,omitempty"`
	ProductName   string             `json:"product_name,omitempty"`
	Status        ConversationStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// ConversationSummary augments a conversation with inbox metadata derived
// from its messages at read time.
type ConversationSummary struct {
	Conversation

	// BoutiqueName is populated for the customer-side inbox only.
	BoutiqueName string `json:"boutique_name,omitempty"`

	// LastMessageTime is the most recent message's creation time, falling
	// back to the conversation's creation time when there are no messages.
	LastMessageTime time.Time `json:"last_message_time"`

	// LastMessage is the text of the most recent message, if any.
	LastMessage string `json:"last_message,omitempty"`

	// UnreadCount counts unread messages sent by the counter-party.
	UnreadCount int64 `json:"unread_count"`
}

// StartConversationParams identifies or creates the thread for a customer
// contact. Call Normalize before matching.
type StartConversationParams struct {
	BoutiqueID    uuid.UUID
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ProductName   string
}

// Normalize canonicalizes the match key: email is lower-cased and trimmed,
// and the product name is trimmed with absent values collapsing to the empty
// string. Name and phone are trimmed but do not participate in matching.
func (p *StartConversationParams) Normalize() {
	p.CustomerName = strings.TrimSpace(p.CustomerName)
	p.CustomerEmail = strings.ToLower(strings.TrimSpace(p.CustomerEmail))
	p.CustomerPhone = strings.TrimSpace(p.CustomerPhone)
	p.ProductName = strings.TrimSpace(p.ProductName)
}
