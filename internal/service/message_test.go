package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/google/uuid"
)

// =============================================================================
// Message Service Tests
// =============================================================================

// fakeMessageStore is an in-memory MessageStore around a single conversation.
type fakeMessageStore struct {
	conv          domain.Conversation
	convErr       error
	inserted      []domain.Message
	statusUpdates []domain.ConversationStatus
}

func (f *fakeMessageStore) GetConversation(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	if f.convErr != nil {
		return domain.Conversation{}, f.convErr
	}
	return f.conv, nil
}

func (f *fakeMessageStore) InsertMessage(ctx context.Context, conversationID uuid.UUID, sender domain.SenderType, text string) (domain.Message, error) {
	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Sender:         sender,
		Text:           text,
		CreatedAt:      time.Now(),
	}
	f.inserted = append(f.inserted, msg)
	return msg, nil
}

func (f *fakeMessageStore) UpdateConversationStatus(ctx context.Context, id uuid.UUID, status domain.ConversationStatus) error {
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

func newMessageFixture(plan domain.Plan, messagesUsed int64) (*fakeMessageStore, MessageService) {
	store := &fakeMessageStore{
		conv: domain.Conversation{
			ID:         uuid.New(),
			BoutiqueID: uuid.New(),
			Status:     domain.ConversationActive,
		},
	}
	quota := NewQuotaService(&fakeQuotaStore{plan: plan, messages: messagesUsed}, testLogger())
	return store, NewMessageService(store, quota, testLogger())
}

func TestSend_BoutiqueUnderCap(t *testing.T) {
	ctx := context.Background()
	store, svc := newMessageFixture(domain.PlanBasic, 4)

	msg, err := svc.Send(ctx, store.conv.ID, domain.SenderBoutique, "Yes, still in stock.")
	if err != nil {
		t.Fatalf("expected fifth boutique message to be admitted, got: %v", err)
	}
	if msg.Sender != domain.SenderBoutique {
		t.Errorf("expected boutique sender, got %s", msg.Sender)
	}
	if len(store.inserted) != 1 {
		t.Errorf("expected one insert, got %d", len(store.inserted))
	}
}

func TestSend_BoutiqueAtCapDeniedBeforeInsert(t *testing.T) {
	ctx := context.Background()
	store, svc := newMessageFixture(domain.PlanBasic, 5)

	_, err := svc.Send(ctx, store.conv.ID, domain.SenderBoutique, "One more reply")
	if !domain.IsQuotaExceeded(err) {
		t.Fatalf("expected quota denial at cap, got: %v", err)
	}
	want := "Your Basic plan allows only 5 sent messages. Upgrade to continue."
	if got := domain.ErrorMessage(err); got != want {
		t.Errorf("expected message %q, got %q", want, got)
	}

	// The denial happens before the insert: no row, no status touch.
	if len(store.inserted) != 0 {
		t.Errorf("denied send must not insert, got %d inserts", len(store.inserted))
	}
	if len(store.statusUpdates) != 0 {
		t.Errorf("denied send must not touch the conversation, got %d updates", len(store.statusUpdates))
	}
}

func TestSend_CustomerNeverGated(t *testing.T) {
	ctx := context.Background()

	// Far beyond the basic cap; customer traffic is not the boutique's quota.
	store, svc := newMessageFixture(domain.PlanBasic, 500)

	if _, err := svc.Send(ctx, store.conv.ID, domain.SenderCustomer, "Is this available in blue?"); err != nil {
		t.Fatalf("customer send must never be quota-gated, got: %v", err)
	}
	if len(store.inserted) != 1 {
		t.Errorf("expected one insert, got %d", len(store.inserted))
	}
}

func TestSend_ReactivatesParkedThread(t *testing.T) {
	ctx := context.Background()
	store, svc := newMessageFixture(domain.PlanPremium, 0)
	store.conv.Status = domain.ConversationArchived

	if _, err := svc.Send(ctx, store.conv.ID, domain.SenderCustomer, "Following up on my order"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.statusUpdates) != 1 || store.statusUpdates[0] != domain.ConversationActive {
		t.Errorf("expected thread to be set active, got %v", store.statusUpdates)
	}
}

func TestSend_Validation(t *testing.T) {
	ctx := context.Background()
	store, svc := newMessageFixture(domain.PlanBasic, 0)

	if _, err := svc.Send(ctx, store.conv.ID, domain.SenderType("system"), "hi"); domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("expected invalid sender error, got: %v", err)
	}
	if _, err := svc.Send(ctx, store.conv.ID, domain.SenderCustomer, "   "); domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("expected empty text error, got: %v", err)
	}
	if len(store.inserted) != 0 {
		t.Errorf("invalid sends must not insert, got %d", len(store.inserted))
	}
}

func TestSend_MissingConversation(t *testing.T) {
	ctx := context.Background()
	store, svc := newMessageFixture(domain.PlanBasic, 0)
	store.convErr = sql.ErrNoRows

	_, err := svc.Send(ctx, uuid.New(), domain.SenderCustomer, "hello")
	if domain.ErrorCode(err) != domain.ENOTFOUND {
		t.Errorf("expected not found, got: %v", err)
	}
}
