package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a customer account. Customers browse boutiques, capture leads and
// start conversations; their activity is never quota-limited.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// SignupUserParams contains validated parameters for creating a user account.
type SignupUserParams struct {
	Name     string
	Email    string
	Password string
}
