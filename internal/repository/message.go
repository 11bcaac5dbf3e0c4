package repository

import (
	"context"
	"time"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/google/uuid"
)

const messageColumns = `id, conversation_id, sender_type, message_text, is_read, created_at`

// InsertMessage appends a message to a conversation. New messages are always
// unread.
func (q *Queries) InsertMessage(ctx context.Context, conversationID uuid.UUID, sender domain.SenderType, text string) (domain.Message, error) {
	const query = `
		INSERT INTO messages (id, conversation_id, sender_type, message_text, is_read, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
		RETURNING ` + messageColumns
	var m domain.Message
	var senderStr string
	row := q.db.QueryRowContext(ctx, query, uuid.New(), conversationID, string(sender), text, time.Now().UTC())
	if err := row.Scan(&m.ID, &m.ConversationID, &senderStr, &m.Text, &m.IsRead, &m.CreatedAt); err != nil {
		return domain.Message{}, err
	}
	m.Sender = domain.SenderType(senderStr)
	return m, nil
}

// ListMessagesByConversation returns a conversation's messages ordered by
// creation time ascending.
func (q *Queries) ListMessagesByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	const query = `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC`
	rows, err := q.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		var senderStr string
		if err := rows.Scan(&m.ID, &m.ConversationID, &senderStr, &m.Text, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Sender = domain.SenderType(senderStr)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkMessagesRead flips every message from the given sender in the
// conversation to read. Called when the other party views the thread.
func (q *Queries) MarkMessagesRead(ctx context.Context, conversationID uuid.UUID, sender domain.SenderType) error {
	const query = `
		UPDATE messages SET is_read = true
		WHERE conversation_id = $1 AND sender_type = $2 AND is_read = false`
	_, err := q.db.ExecContext(ctx, query, conversationID, string(sender))
	return err
}

// CountBoutiqueMessages counts boutique-authored messages across all of a
// boutique's conversations. This is the usage figure for the message quota;
// it is derived from rows on every check, never cached.
func (q *Queries) CountBoutiqueMessages(ctx context.Context, boutiqueID uuid.UUID) (int64, error) {
	const query = `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.boutique_id = $1 AND m.sender_type = 'boutique'`
	var count int64
	err := q.db.QueryRowContext(ctx, query, boutiqueID).Scan(&count)
	return count, err
}
