package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/clochehq/cloche/internal/metrics"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definitions
// =============================================================================

// MessageStore is the subset of repository queries the message service uses.
type MessageStore interface {
	GetConversation(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	InsertMessage(ctx context.Context, conversationID uuid.UUID, sender domain.SenderType, text string) (domain.Message, error)
	UpdateConversationStatus(ctx context.Context, id uuid.UUID, status domain.ConversationStatus) error
}

// MessageService defines operations for appending messages to threads.
type MessageService interface {
	// Send appends a message to an existing conversation. Boutique senders
	// are admitted through the message quota first; customer sends are
	// never quota-gated. A send into an archived or closed thread
	// reactivates it.
	Send(ctx context.Context, conversationID uuid.UUID, sender domain.SenderType, text string) (domain.Message, error)
}

// =============================================================================
// Implementation
// =============================================================================

type messageService struct {
	store  MessageStore
	quota  QuotaService
	logger *slog.Logger
}

// NewMessageService creates a new MessageService.
func NewMessageService(store MessageStore, quota QuotaService, logger *slog.Logger) MessageService {
	return &messageService{
		store:  store,
		quota:  quota,
		logger: logger,
	}
}

// Send appends a message to a conversation.
func (s *messageService) Send(ctx context.Context, conversationID uuid.UUID, sender domain.SenderType, text string) (domain.Message, error) {
	const op = "message.send"

	if !sender.IsValid() {
		return domain.Message{}, domain.Invalid(op, "Unknown sender type")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, domain.Invalid(op, "Message text is required")
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Message{}, domain.NotFound(op, "conversation", conversationID.String())
		}
		return domain.Message{}, domain.Internal(err, op, "failed to fetch conversation")
	}

	// Only boutique-authored messages count against the plan. The denial
	// happens before the insert, so a denied send leaves no row behind.
	if sender == domain.SenderBoutique {
		if err := s.quota.Check(ctx, conv.BoutiqueID, domain.QuotaTypeBoutiqueMessage); err != nil {
			return domain.Message{}, err
		}
	}

	msg, err := s.store.InsertMessage(ctx, conversationID, sender, text)
	if err != nil {
		return domain.Message{}, domain.Internal(err, op, "failed to insert message")
	}

	// Best effort: new traffic reactivates a parked thread and bumps
	// updated_at so inbox recency tracks message traffic. The message is
	// already committed; a failure here only delays the inbox bump.
	if err := s.store.UpdateConversationStatus(ctx, conversationID, domain.ConversationActive); err != nil {
		s.logger.Warn("failed to touch conversation",
			"conversation_id", conversationID,
			"status_was", conv.Status,
			"error", err,
		)
	}

	metrics.MessagesSent.WithLabelValues(string(sender)).Inc()
	return msg, nil
}
