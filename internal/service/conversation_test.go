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
// Conversation Service Tests
// =============================================================================

type markCall struct {
	conversationID uuid.UUID
	sender         domain.SenderType
}

// fakeConversationStore is an in-memory ConversationStore.
type fakeConversationStore struct {
	convs     []domain.Conversation
	messages  map[uuid.UUID][]domain.Message
	markCalls []markCall
	markErr   error
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{messages: map[uuid.UUID][]domain.Message{}}
}

func (f *fakeConversationStore) FindConversation(ctx context.Context, boutiqueID uuid.UUID, customerEmail, productName string) (domain.Conversation, error) {
	for _, c := range f.convs {
		if c.BoutiqueID == boutiqueID && c.CustomerEmail == customerEmail && c.ProductName == productName {
			return c, nil
		}
	}
	return domain.Conversation{}, sql.ErrNoRows
}

func (f *fakeConversationStore) CreateConversation(ctx context.Context, p domain.StartConversationParams) (domain.Conversation, error) {
	conv := domain.Conversation{
		ID:            uuid.New(),
		BoutiqueID:    p.BoutiqueID,
		CustomerName:  p.CustomerName,
		CustomerEmail: p.CustomerEmail,
		CustomerPhone: p.CustomerPhone,
		ProductName:   p.ProductName,
		Status:        domain.ConversationActive,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	f.convs = append(f.convs, conv)
	return conv, nil
}

func (f *fakeConversationStore) GetConversation(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	for _, c := range f.convs {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Conversation{}, sql.ErrNoRows
}

func (f *fakeConversationStore) ListConversationSummariesByBoutique(ctx context.Context, boutiqueID uuid.UUID) ([]domain.ConversationSummary, error) {
	var out []domain.ConversationSummary
	for _, c := range f.convs {
		if c.BoutiqueID == boutiqueID {
			out = append(out, domain.ConversationSummary{Conversation: c})
		}
	}
	return out, nil
}

func (f *fakeConversationStore) ListConversationSummariesByCustomer(ctx context.Context, customerEmail string) ([]domain.ConversationSummary, error) {
	var out []domain.ConversationSummary
	for _, c := range f.convs {
		if c.CustomerEmail == customerEmail {
			out = append(out, domain.ConversationSummary{Conversation: c})
		}
	}
	return out, nil
}

func (f *fakeConversationStore) UpdateConversationStatus(ctx context.Context, id uuid.UUID, status domain.ConversationStatus) error {
	for i := range f.convs {
		if f.convs[i].ID == id {
			f.convs[i].Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeConversationStore) ListMessagesByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	// Return a copy: a real store scans rows into fresh values, so later
	// writes (e.g. MarkMessagesRead) must not alias a previously returned slice.
	msgs := f.messages[conversationID]
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (f *fakeConversationStore) MarkMessagesRead(ctx context.Context, conversationID uuid.UUID, sender domain.SenderType) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.markCalls = append(f.markCalls, markCall{conversationID, sender})
	msgs := f.messages[conversationID]
	for i := range msgs {
		if msgs[i].Sender == sender {
			msgs[i].IsRead = true
		}
	}
	return nil
}

func TestFindOrCreate_ReusesThreadForSameKey(t *testing.T) {
	ctx := context.Background()
	store := newFakeConversationStore()
	svc := NewConversationService(store, testLogger())

	boutiqueID := uuid.New()
	first, created, err := svc.FindOrCreate(ctx, domain.StartConversationParams{
		BoutiqueID:    boutiqueID,
		CustomerName:  "Anna",
		CustomerEmail: "anna@example.com",
		ProductName:   "Silk Scarf",
	})
	if err != nil || !created {
		t.Fatalf("expected new thread, got created=%v err=%v", created, err)
	}

	// Same key, messier input: email case and whitespace must not fork a
	// new thread.
	second, created, err := svc.FindOrCreate(ctx, domain.StartConversationParams{
		BoutiqueID:    boutiqueID,
		CustomerName:  "Anna",
		CustomerEmail: "  Anna@Example.COM ",
		ProductName:   " Silk Scarf ",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected existing thread to be reused")
	}
	if second.ID != first.ID {
		t.Errorf("expected thread %s, got %s", first.ID, second.ID)
	}
}

func TestFindOrCreate_DifferentProductStartsNewThread(t *testing.T) {
	ctx := context.Background()
	store := newFakeConversationStore()
	svc := NewConversationService(store, testLogger())

	boutiqueID := uuid.New()
	first, _, err := svc.FindOrCreate(ctx, domain.StartConversationParams{
		BoutiqueID:    boutiqueID,
		CustomerName:  "Anna",
		CustomerEmail: "anna@example.com",
		ProductName:   "Silk Scarf",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, created, err := svc.FindOrCreate(ctx, domain.StartConversationParams{
		BoutiqueID:    boutiqueID,
		CustomerName:  "Anna",
		CustomerEmail: "anna@example.com",
		ProductName:   "Wool Hat",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected a different product to start a new thread")
	}
	if second.ID == first.ID {
		t.Error("expected distinct thread IDs")
	}
}

func TestFindOrCreate_GeneralInquiryIsItsOwnThread(t *testing.T) {
	ctx := context.Background()
	store := newFakeConversationStore()
	svc := NewConversationService(store, testLogger())

	boutiqueID := uuid.New()
	_, _, err := svc.FindOrCreate(ctx, domain.StartConversationParams{
		BoutiqueID:    boutiqueID,
		CustomerName:  "Anna",
		CustomerEmail: "anna@example.com",
		ProductName:   "Silk Scarf",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// No product: distinct from the product thread, reused on repeat.
	general, created, err := svc.FindOrCreate(ctx, domain.StartConversationParams{
		BoutiqueID:    boutiqueID,
		CustomerName:  "Anna",
		CustomerEmail: "anna@example.com",
	})
	if err != nil || !created {
		t.Fatalf("expected new general thread, got created=%v err=%v", created, err)
	}

	again, created, err := svc.FindOrCreate(ctx, domain.StartConversationParams{
		BoutiqueID:    boutiqueID,
		CustomerName:  "Anna",
		CustomerEmail: "anna@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created || again.ID != general.ID {
		t.Errorf("expected general thread to be reused, created=%v", created)
	}
}

func TestFindOrCreate_RequiresNameAndEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewConversationService(newFakeConversationStore(), testLogger())

	_, _, err := svc.FindOrCreate(ctx, domain.StartConversationParams{
		BoutiqueID:   uuid.New(),
		CustomerName: "Anna",
	})
	if domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("expected invalid for missing email, got: %v", err)
	}

	_, _, err = svc.FindOrCreate(ctx, domain.StartConversationParams{
		BoutiqueID:    uuid.New(),
		CustomerEmail: "anna@example.com",
	})
	if domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("expected invalid for missing name, got: %v", err)
	}
}

func TestMessages_ReturnsPreMarkStateThenMarksRead(t *testing.T) {
	ctx := context.Background()
	store := newFakeConversationStore()
	svc := NewConversationService(store, testLogger())

	conv, _, err := svc.FindOrCreate(ctx, domain.StartConversationParams{
		BoutiqueID:    uuid.New(),
		CustomerName:  "Anna",
		CustomerEmail: "anna@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := time.Now()
	store.messages[conv.ID] = []domain.Message{
		{ID: uuid.New(), ConversationID: conv.ID, Sender: domain.SenderCustomer, Text: "Hi", IsRead: true, CreatedAt: base},
		{ID: uuid.New(), ConversationID: conv.ID, Sender: domain.SenderBoutique, Text: "Hello", IsRead: false, CreatedAt: base.Add(time.Minute)},
		{ID: uuid.New(), ConversationID: conv.ID, Sender: domain.SenderBoutique, Text: "Anything else?", IsRead: false, CreatedAt: base.Add(2 * time.Minute)},
	}

	msgs, err := svc.Messages(ctx, conv.ID, domain.SenderCustomer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The returned slice shows which messages were new on this visit.
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[1].IsRead || msgs[2].IsRead {
		t.Error("returned messages must reflect pre-mark read flags")
	}

	// Viewing as the customer marks the boutique's messages read.
	if len(store.markCalls) != 1 {
		t.Fatalf("expected one mark call, got %d", len(store.markCalls))
	}
	if store.markCalls[0].sender != domain.SenderBoutique {
		t.Errorf("expected boutique messages marked, got %s", store.markCalls[0].sender)
	}
	for _, m := range store.messages[conv.ID] {
		if m.Sender == domain.SenderBoutique && !m.IsRead {
			t.Error("boutique messages should be read after the visit")
		}
	}
}

func TestMessages_OrderPreservedOldestFirst(t *testing.T) {
	ctx := context.Background()
	store := newFakeConversationStore()
	svc := NewConversationService(store, testLogger())

	conv, _, err := svc.FindOrCreate(ctx, domain.StartConversationParams{
		BoutiqueID:    uuid.New(),
		CustomerName:  "Anna",
		CustomerEmail: "anna@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	base := time.Now()
	for i := 0; i < 4; i++ {
		store.messages[conv.ID] = append(store.messages[conv.ID], domain.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			Sender:         domain.SenderCustomer,
			Text:           "msg",
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		})
	}

	msgs, err := svc.Messages(ctx, conv.ID, domain.SenderBoutique)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatal("messages must be ordered oldest first")
		}
	}
}

func TestMessages_MarkFailureDoesNotHideThread(t *testing.T) {
	ctx := context.Background()
	store := newFakeConversationStore()
	svc := NewConversationService(store, testLogger())

	conv, _, err := svc.FindOrCreate(ctx, domain.StartConversationParams{
		BoutiqueID:    uuid.New(),
		CustomerName:  "Anna",
		CustomerEmail: "anna@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.messages[conv.ID] = []domain.Message{
		{ID: uuid.New(), ConversationID: conv.ID, Sender: domain.SenderCustomer, Text: "Hi", CreatedAt: time.Now()},
	}
	store.markErr = sql.ErrConnDone

	msgs, err := svc.Messages(ctx, conv.ID, domain.SenderBoutique)
	if err != nil {
		t.Fatalf("read-mark failure must not fail the fetch, got: %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("expected 1 message, got %d", len(msgs))
	}
}

func TestMessages_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewConversationService(newFakeConversationStore(), testLogger())

	if _, err := svc.Messages(ctx, uuid.New(), domain.SenderType("nobody")); domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("expected invalid viewer error, got: %v", err)
	}
	if _, err := svc.Messages(ctx, uuid.New(), domain.SenderCustomer); domain.ErrorCode(err) != domain.ENOTFOUND {
		t.Errorf("expected not found for unknown conversation, got: %v", err)
	}
}

func TestListForCustomer_RequiresEmail(t *testing.T) {
	ctx := context.Background()
	svc := NewConversationService(newFakeConversationStore(), testLogger())

	if _, err := svc.ListForCustomer(ctx, "   "); domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("expected invalid for blank email, got: %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	store := newFakeConversationStore()
	svc := NewConversationService(store, testLogger())

	conv, _, err := svc.FindOrCreate(ctx, domain.StartConversationParams{
		BoutiqueID:    uuid.New(),
		CustomerName:  "Anna",
		CustomerEmail: "anna@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.SetStatus(ctx, conv.ID, domain.ConversationArchived); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := svc.Get(ctx, conv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.ConversationArchived {
		t.Errorf("expected archived, got %s", got.Status)
	}

	if err := svc.SetStatus(ctx, conv.ID, domain.ConversationStatus("paused")); domain.ErrorCode(err) != domain.EINVALID {
		t.Errorf("expected invalid for unknown status, got: %v", err)
	}
}
