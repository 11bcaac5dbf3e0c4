package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/google/uuid"
)

// CreateLead records a captured customer inquiry.
func (q *Queries) CreateLead(ctx context.Context, p domain.CaptureLeadParams) (domain.Lead, error) {
	const query = `
		INSERT INTO leads (id, boutique_id, customer_name, contact, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, boutique_id, customer_name, contact, message, created_at`
	var l domain.Lead
	var message sql.NullString
	row := q.db.QueryRowContext(ctx, query,
		uuid.New(), p.BoutiqueID, p.CustomerName, p.Contact, nullStr(p.Message), time.Now().UTC())
	if err := row.Scan(&l.ID, &l.BoutiqueID, &l.CustomerName, &l.Contact, &message, &l.CreatedAt); err != nil {
		return domain.Lead{}, err
	}
	l.Message = strVal(message)
	return l, nil
}

// ListLeadsByBoutique returns the boutique's leads, newest first.
func (q *Queries) ListLeadsByBoutique(ctx context.Context, boutiqueID uuid.UUID) ([]domain.Lead, error) {
	const query = `
		SELECT id, boutique_id, customer_name, contact, message, created_at
		FROM leads
		WHERE boutique_id = $1
		ORDER BY created_at DESC`
	rows, err := q.db.QueryContext(ctx, query, boutiqueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []domain.Lead
	for rows.Next() {
		var l domain.Lead
		var message sql.NullString
		if err := rows.Scan(&l.ID, &l.BoutiqueID, &l.CustomerName, &l.Contact, &message, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Message = strVal(message)
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// CountLeadsByBoutique counts the boutique's captured leads. This is the
// usage figure for the lead quota, derived at read time.
func (q *Queries) CountLeadsByBoutique(ctx context.Context, boutiqueID uuid.UUID) (int64, error) {
	const query = `SELECT COUNT(*) FROM leads WHERE boutique_id = $1`
	var count int64
	err := q.db.QueryRowContext(ctx, query, boutiqueID).Scan(&count)
	return count, err
}
