package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/clochehq/cloche/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Interface Definitions
// =============================================================================

// UserStore is the subset of repository queries the user service uses.
type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (domain.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, name, email string) (domain.User, error)
}

// UserService defines operations for customer accounts.
type UserService interface {
	// Signup creates a customer account.
	// Returns domain.ECONFLICT when the email is already registered.
	Signup(ctx context.Context, p domain.SignupUserParams) (domain.User, error)

	// Login authenticates by email. The error is identical for an unknown
	// email and a wrong password.
	Login(ctx context.Context, email, password string) (domain.User, error)

	// Get fetches a customer by ID.
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)

	// Update edits the customer's name and email.
	Update(ctx context.Context, id uuid.UUID, name, email string) (domain.User, error)
}

// =============================================================================
// Implementation
// =============================================================================

type userService struct {
	store  UserStore
	logger *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, logger *slog.Logger) UserService {
	return &userService{
		store:  store,
		logger: logger,
	}
}

// Signup creates a customer account.
func (s *userService) Signup(ctx context.Context, p domain.SignupUserParams) (domain.User, error) {
	const op = "user.signup"

	p.Name = strings.TrimSpace(p.Name)
	p.Email = normalizeEmail(p.Email)
	if p.Name == "" {
		return domain.User{}, domain.Invalid(op, "Name is required")
	}
	if p.Email == "" {
		return domain.User{}, domain.Invalid(op, "Email is required")
	}
	if err := validatePassword(p.Password); err != nil {
		return domain.User{}, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(p.Password), BcryptCost)
	if err != nil {
		return domain.User{}, domain.Internal(err, op, "failed to hash password")
	}

	user, err := s.store.CreateUser(ctx, p.Name, p.Email, string(passwordHash))
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return domain.User{}, domain.Conflict(op, "Email already registered")
		}
		return domain.User{}, domain.Internal(err, op, "failed to create account")
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login authenticates a customer.
func (s *userService) Login(ctx context.Context, email, password string) (domain.User, error) {
	const op = "user.login"

	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return domain.User{}, domain.Unauthorized(op, "Invalid credentials")
		}
		return domain.User{}, domain.Internal(err, op, "failed to fetch account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.Unauthorized(op, "Invalid credentials")
	}
	return user, nil
}

// Get fetches a customer by ID.
func (s *userService) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const op = "user.get"

	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.NotFound(op, "user", id.String())
		}
		return domain.User{}, domain.Internal(err, op, "failed to fetch account")
	}
	return user, nil
}

// Update edits the customer's name and email.
func (s *userService) Update(ctx context.Context, id uuid.UUID, name, email string) (domain.User, error) {
	const op = "user.update"

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return domain.User{}, domain.Invalid(op, "Name is required")
	}
	if email == "" {
		return domain.User{}, domain.Invalid(op, "Email is required")
	}

	user, err := s.store.UpdateUser(ctx, id, name, email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return domain.User{}, domain.NotFound(op, "user", id.String())
		case repository.IsUniqueViolation(err):
			return domain.User{}, domain.Conflict(op, "Email already registered")
		}
		return domain.User{}, domain.Internal(err, op, "failed to update account")
	}
	return user, nil
}
