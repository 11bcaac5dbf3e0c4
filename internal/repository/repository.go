// Package repository provides SQL persistence for the Cloche marketplace.
//
// All queries run against Postgres through database/sql with the pgx driver.
// Methods return sql.ErrNoRows unchanged when a lookup misses; mapping to
// domain errors happens in the service layer.
package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Queries executes the application's SQL statements.
type Queries struct {
	db *sql.DB
}

// New creates a Queries backed by the given database handle.
func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

// nullStr converts an optional string to its NULL-aware form. Empty strings
// are stored as NULL.
func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// uniqueViolation is the Postgres error code for unique constraint failures.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation, for mapping duplicate inserts to conflict errors.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// strVal unwraps a NULL-aware string, returning "" for NULL.
func strVal(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}
