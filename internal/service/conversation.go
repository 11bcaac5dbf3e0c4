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

// normalizeEmail canonicalizes an email for matching: lower-cased, trimmed.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// =============================================================================
// Interface Definitions
// =============================================================================

// ConversationStore is the subset of repository queries the conversation
// service uses.
type ConversationStore interface {
	FindConversation(ctx context.Context, boutiqueID uuid.UUID, customerEmail, productName string) (domain.Conversation, error)
	CreateConversation(ctx context.Context, p domain.StartConversationParams) (domain.Conversation, error)
	GetConversation(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	ListConversationSummariesByBoutique(ctx context.Context, boutiqueID uuid.UUID) ([]domain.ConversationSummary, error)
	ListConversationSummariesByCustomer(ctx context.Context, customerEmail string) ([]domain.ConversationSummary, error)
	UpdateConversationStatus(ctx context.Context, id uuid.UUID, status domain.ConversationStatus) error
	ListMessagesByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID uuid.UUID, sender domain.SenderType) error
}

// ConversationService defines operations for managing message threads.
type ConversationService interface {
	// FindOrCreate returns the existing thread for the normalized
	// (boutique, customer email, product) key, or creates a new active one.
	// The boolean reports whether a thread was created.
	FindOrCreate(ctx context.Context, p domain.StartConversationParams) (domain.Conversation, bool, error)

	// Get fetches a thread by ID.
	Get(ctx context.Context, id uuid.UUID) (domain.Conversation, error)

	// ListForBoutique returns the boutique's inbox, most recently active
	// first, with unread counts of customer messages.
	ListForBoutique(ctx context.Context, boutiqueID uuid.UUID) ([]domain.ConversationSummary, error)

	// ListForCustomer returns the customer's inbox across boutiques, most
	// recently active first, with unread counts of boutique messages.
	ListForCustomer(ctx context.Context, customerEmail string) ([]domain.ConversationSummary, error)

	// Messages returns the thread's messages oldest-first as they were at
	// fetch time, then marks the counterpart's messages as read. The
	// returned slice reflects the pre-mark read flags, so the viewer sees
	// which messages were new on this visit exactly once.
	Messages(ctx context.Context, conversationID uuid.UUID, viewer domain.SenderType) ([]domain.Message, error)

	// SetStatus moves the thread to a new lifecycle state.
	SetStatus(ctx context.Context, id uuid.UUID, status domain.ConversationStatus) error
}

// =============================================================================
// Implementation
// =============================================================================

type conversationService struct {
	store  ConversationStore
	logger *slog.Logger
}

// NewConversationService creates a new ConversationService.
func NewConversationService(store ConversationStore, logger *slog.Logger) ConversationService {
	return &conversationService{
		store:  store,
		logger: logger,
	}
}

// FindOrCreate reuses or starts the thread for a customer contact.
func (s *conversationService) FindOrCreate(ctx context.Context, p domain.StartConversationParams) (domain.Conversation, bool, error) {
	const op = "conversation.find_or_create"

	p.Normalize()
	if p.CustomerEmail == "" {
		return domain.Conversation{}, false, domain.Invalid(op, "Customer email is required")
	}
	if p.CustomerName == "" {
		return domain.Conversation{}, false, domain.Invalid(op, "Customer name is required")
	}

	conv, err := s.store.FindConversation(ctx, p.BoutiqueID, p.CustomerEmail, p.ProductName)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.Conversation{}, false, domain.Internal(err, op, "failed to look up conversation")
	}

	conv, err = s.store.CreateConversation(ctx, p)
	if err != nil {
		return domain.Conversation{}, false, domain.Internal(err, op, "failed to create conversation")
	}

	s.logger.Info("conversation started",
		"conversation_id", conv.ID,
		"boutique_id", conv.BoutiqueID,
		"has_product", conv.ProductName != "",
	)
	metrics.ConversationsStarted.Inc()
	return conv, true, nil
}

// Get fetches a thread by ID.
func (s *conversationService) Get(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	const op = "conversation.get"

	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Conversation{}, domain.NotFound(op, "conversation", id.String())
		}
		return domain.Conversation{}, domain.Internal(err, op, "failed to fetch conversation")
	}
	return conv, nil
}

// ListForBoutique returns the boutique-side inbox.
func (s *conversationService) ListForBoutique(ctx context.Context, boutiqueID uuid.UUID) ([]domain.ConversationSummary, error) {
	const op = "conversation.list_boutique"

	summaries, err := s.store.ListConversationSummariesByBoutique(ctx, boutiqueID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list conversations")
	}
	return summaries, nil
}

// ListForCustomer returns the customer-side inbox.
func (s *conversationService) ListForCustomer(ctx context.Context, customerEmail string) ([]domain.ConversationSummary, error) {
	const op = "conversation.list_customer"

	email := normalizeEmail(customerEmail)
	if email == "" {
		return nil, domain.Invalid(op, "Customer email is required")
	}
	summaries, err := s.store.ListConversationSummariesByCustomer(ctx, email)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list conversations")
	}
	return summaries, nil
}

// Messages returns the thread oldest-first and marks the counterpart's
// messages read.
func (s *conversationService) Messages(ctx context.Context, conversationID uuid.UUID, viewer domain.SenderType) ([]domain.Message, error) {
	const op = "conversation.messages"

	if !viewer.IsValid() {
		return nil, domain.Invalid(op, "Unknown viewer type")
	}

	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "conversation", conversationID.String())
		}
		return nil, domain.Internal(err, op, "failed to fetch conversation")
	}

	msgs, err := s.store.ListMessagesByConversation(ctx, conversationID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list messages")
	}

	// Best effort: a failed read-mark must not hide the thread from the
	// viewer. The unread counts self-heal on the next successful visit.
	if err := s.store.MarkMessagesRead(ctx, conversationID, viewer.Counterpart()); err != nil {
		s.logger.Warn("failed to mark messages read",
			"conversation_id", conversationID,
			"viewer", viewer,
			"error", err,
		)
	}

	return msgs, nil
}

// SetStatus moves the thread to a new lifecycle state.
func (s *conversationService) SetStatus(ctx context.Context, id uuid.UUID, status domain.ConversationStatus) error {
	const op = "conversation.set_status"

	if !status.IsValid() {
		return domain.Invalid(op, "Unknown conversation status")
	}
	if err := s.store.UpdateConversationStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "conversation", id.String())
		}
		return domain.Internal(err, op, "failed to update conversation status")
	}
	return nil
}
