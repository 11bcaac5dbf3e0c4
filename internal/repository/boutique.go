package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/google/uuid"
)

const boutiqueColumns = `id, boutique_name, owner_name, email, phone, city, password_hash, plan, created_at, updated_at`

func scanBoutique(row interface{ Scan(...any) error }) (domain.Boutique, error) {
	var b domain.Boutique
	var phone, city sql.NullString
	var plan sql.NullString
	err := row.Scan(&b.ID, &b.BoutiqueName, &b.OwnerName, &b.Email, &phone, &city, &b.PasswordHash, &plan, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return domain.Boutique{}, err
	}
	b.Phone = strVal(phone)
	b.City = strVal(city)
	b.Plan = domain.ParsePlan(strVal(plan))
	return b, nil
}

// CreateBoutiqueParams are the row fields for a new boutique account.
type CreateBoutiqueParams struct {
	BoutiqueName string
	OwnerName    string
	Email        string
	Phone        string
	City         string
	PasswordHash string
	Plan         domain.Plan
}

// CreateBoutique inserts a boutique account and returns the stored row.
func (q *Queries) CreateBoutique(ctx context.Context, p CreateBoutiqueParams) (domain.Boutique, error) {
	const query = `
		INSERT INTO boutiques (id, boutique_name, owner_name, email, phone, city, password_hash, plan, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING ` + boutiqueColumns
	now := time.Now().UTC()
	row := q.db.QueryRowContext(ctx, query,
		uuid.New(), p.BoutiqueName, p.OwnerName, p.Email, nullStr(p.Phone), nullStr(p.City), p.PasswordHash, string(p.Plan), now)
	return scanBoutique(row)
}

// GetBoutiqueByID fetches a boutique by primary key.
func (q *Queries) GetBoutiqueByID(ctx context.Context, id uuid.UUID) (domain.Boutique, error) {
	const query = `SELECT ` + boutiqueColumns + ` FROM boutiques WHERE id = $1`
	return scanBoutique(q.db.QueryRowContext(ctx, query, id))
}

// GetBoutiqueByIdentifier fetches a boutique by email or phone, for login.
func (q *Queries) GetBoutiqueByIdentifier(ctx context.Context, identifier string) (domain.Boutique, error) {
	const query = `SELECT ` + boutiqueColumns + ` FROM boutiques WHERE email = $1 OR phone = $1 LIMIT 1`
	return scanBoutique(q.db.QueryRowContext(ctx, query, identifier))
}

// GetBoutiquePlan resolves only the plan column. Used on the quota hot path
// to avoid scanning the full account row.
func (q *Queries) GetBoutiquePlan(ctx context.Context, id uuid.UUID) (domain.Plan, error) {
	const query = `SELECT plan FROM boutiques WHERE id = $1`
	var plan sql.NullString
	if err := q.db.QueryRowContext(ctx, query, id).Scan(&plan); err != nil {
		return "", err
	}
	return domain.ParsePlan(strVal(plan)), nil
}

// UpdateBoutiqueProfile updates the editable profile fields.
func (q *Queries) UpdateBoutiqueProfile(ctx context.Context, p domain.UpdateBoutiqueProfileParams) error {
	const query = `
		UPDATE boutiques
		SET boutique_name = $2, owner_name = $3, email = $4, phone = $5, city = $6, updated_at = $7
		WHERE id = $1`
	res, err := q.db.ExecContext(ctx, query,
		p.ID, p.BoutiqueName, p.OwnerName, p.Email, nullStr(p.Phone), nullStr(p.City), time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateBoutiquePassword replaces the stored password hash.
func (q *Queries) UpdateBoutiquePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const query = `UPDATE boutiques SET password_hash = $2, updated_at = $3 WHERE id = $1`
	res, err := q.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateBoutiquePlan sets the subscription plan. Plans are never decremented
// automatically; this is the only write path for the column.
func (q *Queries) UpdateBoutiquePlan(ctx context.Context, id uuid.UUID, plan domain.Plan) error {
	const query = `UPDATE boutiques SET plan = $2, updated_at = $3 WHERE id = $1`
	res, err := q.db.ExecContext(ctx, query, id, string(plan), time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListBoutiques returns every boutique, newest first, for the public
// directory.
func (q *Queries) ListBoutiques(ctx context.Context) ([]domain.Boutique, error) {
	const query = `SELECT ` + boutiqueColumns + ` FROM boutiques ORDER BY created_at DESC`
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boutiques []domain.Boutique
	for rows.Next() {
		b, err := scanBoutique(rows)
		if err != nil {
			return nil, err
		}
		boutiques = append(boutiques, b)
	}
	return boutiques, rows.Err()
}

// requireRow converts a zero-row update into sql.ErrNoRows so callers can
// treat missing targets uniformly with lookups.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
