package repository

import (
	"context"
	"time"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/google/uuid"
)

const userColumns = `id, name, email, password_hash, created_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

// CreateUser inserts a customer account and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, name, email, passwordHash string) (domain.User, error) {
	const query = `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	row := q.db.QueryRowContext(ctx, query, uuid.New(), name, email, passwordHash, time.Now().UTC())
	return scanUser(row)
}

// GetUserByEmail fetches a customer account by email, for login.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(q.db.QueryRowContext(ctx, query, email))
}

// GetUserByID fetches a customer account by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.db.QueryRowContext(ctx, query, id))
}

// UpdateUser updates a customer's name and email.
func (q *Queries) UpdateUser(ctx context.Context, id uuid.UUID, name, email string) (domain.User, error) {
	const query = `
		UPDATE users SET name = $2, email = $3 WHERE id = $1
		RETURNING ` + userColumns
	return scanUser(q.db.QueryRowContext(ctx, query, id, name, email))
}
