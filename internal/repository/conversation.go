package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/google/uuid"
)

const conversationColumns = `id, boutique_id, customer_name, customer_email, customer_phone, product_name, status, created_at, updated_at`

func scanConversation(row interface{ Scan(...any) error }) (domain.Conversation, error) {
	var c domain.Conversation
	var phone sql.NullString
	var status string
	err := row.Scan(&c.ID, &c.BoutiqueID, &c.CustomerName, &c.CustomerEmail, &phone, &c.ProductName, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Conversation{}, err
	}
	c.CustomerPhone = strVal(phone)
	c.Status = domain.ConversationStatus(status)
	return c, nil
}

// FindConversation looks up the thread for a (boutique, customer email,
// product) triple. The product name is matched on its normalized form; the
// empty string means "no product". Returns sql.ErrNoRows when the customer
// has not contacted the boutique about this product before.
func (q *Queries) FindConversation(ctx context.Context, boutiqueID uuid.UUID, customerEmail, productName string) (domain.Conversation, error) {
	const query = `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE boutique_id = $1 AND customer_email = $2 AND product_name = $3
		ORDER BY created_at DESC
		LIMIT 1`
	return scanConversation(q.db.QueryRowContext(ctx, query, boutiqueID, customerEmail, productName))
}

// CreateConversation inserts a new active thread.
func (q *Queries) CreateConversation(ctx context.Context, p domain.StartConversationParams) (domain.Conversation, error) {
	const query = `
		INSERT INTO conversations (id, boutique_id, customer_name, customer_email, customer_phone, product_name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + conversationColumns
	now := time.Now().UTC()
	row := q.db.QueryRowContext(ctx, query,
		uuid.New(), p.BoutiqueID, p.CustomerName, p.CustomerEmail, nullStr(p.CustomerPhone), p.ProductName, string(domain.ConversationActive), now)
	return scanConversation(row)
}

// GetConversation fetches a thread by primary key.
func (q *Queries) GetConversation(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	const query = `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	return scanConversation(q.db.QueryRowContext(ctx, query, id))
}

// ListConversationSummariesByBoutique returns the boutique-side inbox:
// every thread with its last message and the count of unread customer
// messages, most recently active first.
func (q *Queries) ListConversationSummariesByBoutique(ctx context.Context, boutiqueID uuid.UUID) ([]domain.ConversationSummary, error) {
	const query = `
		SELECT c.id, c.boutique_id, c.customer_name, c.customer_email, c.customer_phone,
		       c.product_name, c.status, c.created_at, c.updated_at,
		       COALESCE(MAX(m.created_at), c.created_at) AS last_message_time,
		       COALESCE((SELECT message_text FROM messages WHERE conversation_id = c.id ORDER BY created_at DESC LIMIT 1), '') AS last_message,
		       COUNT(*) FILTER (WHERE m.is_read = false AND m.sender_type = 'customer') AS unread_count
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE c.boutique_id = $1
		GROUP BY c.id
		ORDER BY last_message_time DESC`
	rows, err := q.db.QueryContext(ctx, query, boutiqueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSummaries(rows, false)
}

// ListConversationSummariesByCustomer returns the customer-side inbox across
// all boutiques, with the boutique name and the count of unread boutique
// messages, most recently active first.
func (q *Queries) ListConversationSummariesByCustomer(ctx context.Context, customerEmail string) ([]domain.ConversationSummary, error) {
	const query = `
		SELECT c.id, c.boutique_id, c.customer_name, c.customer_email, c.customer_phone,
		       c.product_name, c.status, c.created_at, c.updated_at,
		       COALESCE(MAX(m.created_at), c.created_at) AS last_message_time,
		       COALESCE((SELECT message_text FROM messages WHERE conversation_id = c.id ORDER BY created_at DESC LIMIT 1), '') AS last_message,
		       COUNT(*) FILTER (WHERE m.is_read = false AND m.sender_type = 'boutique') AS unread_count,
		       b.boutique_name
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		JOIN boutiques b ON b.id = c.boutique_id
		WHERE c.customer_email = $1
		GROUP BY c.id, b.boutique_name
		ORDER BY last_message_time DESC`
	rows, err := q.db.QueryContext(ctx, query, customerEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSummaries(rows, true)
}

func collectSummaries(rows *sql.Rows, withBoutiqueName bool) ([]domain.ConversationSummary, error) {
	var summaries []domain.ConversationSummary
	for rows.Next() {
		var s domain.ConversationSummary
		var phone sql.NullString
		var status string
		dest := []any{
			&s.ID, &s.BoutiqueID, &s.CustomerName, &s.CustomerEmail, &phone,
			&s.ProductName, &status, &s.CreatedAt, &s.UpdatedAt,
			&s.LastMessageTime, &s.LastMessage, &s.UnreadCount,
		}
		if withBoutiqueName {
			dest = append(dest, &s.BoutiqueName)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		s.CustomerPhone = strVal(phone)
		s.Status = domain.ConversationStatus(status)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// UpdateConversationStatus sets the thread's lifecycle state.
func (q *Queries) UpdateConversationStatus(ctx context.Context, id uuid.UUID, status domain.ConversationStatus) error {
	const query = `UPDATE conversations SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := q.db.ExecContext(ctx, query, id, string(status), time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}
