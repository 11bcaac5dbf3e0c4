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
// Configuration Constants
// =============================================================================

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	BcryptCost = 12

	// MinPasswordLength is the minimum password length.
	MinPasswordLength = 8

	// MaxPasswordLength prevents DoS via bcrypt on very long passwords.
	// bcrypt has a 72-byte limit anyway, but we cap earlier for clarity.
	MaxPasswordLength = 72
)

// dummyHash is a bcrypt hash compared against on unknown-account logins so
// a miss costs the same as a password mismatch.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// =============================================================================
// Interface Definitions
// =============================================================================

// BoutiqueStore is the subset of repository queries the boutique service uses.
type BoutiqueStore interface {
	CreateBoutique(ctx context.Context, p repository.CreateBoutiqueParams) (domain.Boutique, error)
	GetBoutiqueByID(ctx context.Context, id uuid.UUID) (domain.Boutique, error)
	GetBoutiqueByIdentifier(ctx context.Context, identifier string) (domain.Boutique, error)
	UpdateBoutiqueProfile(ctx context.Context, p domain.UpdateBoutiqueProfileParams) error
	UpdateBoutiquePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateBoutiquePlan(ctx context.Context, id uuid.UUID, plan domain.Plan) error
	ListBoutiques(ctx context.Context) ([]domain.Boutique, error)
	ListShowcases(ctx context.Context) (map[uuid.UUID]domain.Showcase, error)
}

// BoutiqueService defines operations for seller accounts.
type BoutiqueService interface {
	// Signup creates a boutique account on the Basic plan.
	// Returns domain.ECONFLICT when the email or phone is already taken.
	Signup(ctx context.Context, p domain.SignupBoutiqueParams) (domain.Boutique, error)

	// Login authenticates by email or phone. The error is identical for an
	// unknown identifier and a wrong password.
	Login(ctx context.Context, identifier, password string) (domain.Boutique, error)

	// Get fetches a boutique by ID.
	Get(ctx context.Context, id uuid.UUID) (domain.Boutique, error)

	// UpdateProfile edits the profile fields. The plan is not touched here.
	UpdateProfile(ctx context.Context, p domain.UpdateBoutiqueProfileParams) (domain.Boutique, error)

	// ChangePassword verifies the current password before setting a new one.
	ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error

	// ChangePlan moves the boutique to a new plan. Plans only change
	// through this call; nothing resets or downgrades them automatically.
	ChangePlan(ctx context.Context, p domain.ChangePlanParams) (domain.Boutique, error)

	// Directory returns the public boutique listing merged with showcases,
	// newest boutique first.
	Directory(ctx context.Context) ([]domain.BoutiqueListing, error)
}

// =============================================================================
// Implementation
// =============================================================================

type boutiqueService struct {
	store  BoutiqueStore
	logger *slog.Logger
}

// NewBoutiqueService creates a new BoutiqueService.
func NewBoutiqueService(store BoutiqueStore, logger *slog.Logger) BoutiqueService {
	return &boutiqueService{
		store:  store,
		logger: logger,
	}
}

// Signup creates a boutique account.
func (s *boutiqueService) Signup(ctx context.Context, p domain.SignupBoutiqueParams) (domain.Boutique, error) {
	const op = "boutique.signup"

	p.BoutiqueName = strings.TrimSpace(p.BoutiqueName)
	p.OwnerName = strings.TrimSpace(p.OwnerName)
	p.Email = normalizeEmail(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.City = strings.TrimSpace(p.City)

	if p.BoutiqueName == "" {
		return domain.Boutique{}, domain.Invalid(op, "Boutique name is required")
	}
	if p.Email == "" {
		return domain.Boutique{}, domain.Invalid(op, "Email is required")
	}
	if err := validatePassword(p.Password); err != nil {
		return domain.Boutique{}, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(p.Password), BcryptCost)
	if err != nil {
		return domain.Boutique{}, domain.Internal(err, op, "failed to hash password")
	}

	boutique, err := s.store.CreateBoutique(ctx, repository.CreateBoutiqueParams{
		BoutiqueName: p.BoutiqueName,
		OwnerName:    p.OwnerName,
		Email:        p.Email,
		Phone:        p.Phone,
		City:         p.City,
		PasswordHash: string(passwordHash),
		Plan:         domain.PlanBasic,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return domain.Boutique{}, domain.Conflict(op, "Account with this email or phone already exists")
		}
		return domain.Boutique{}, domain.Internal(err, op, "failed to create account")
	}

	s.logger.Info("boutique registered", "boutique_id", boutique.ID, "plan", boutique.Plan)
	return boutique, nil
}

// Login authenticates a boutique.
func (s *boutiqueService) Login(ctx context.Context, identifier, password string) (domain.Boutique, error) {
	const op = "boutique.login"

	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}

	boutique, err := s.store.GetBoutiqueByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return domain.Boutique{}, domain.Unauthorized(op, "Invalid credentials")
		}
		return domain.Boutique{}, domain.Internal(err, op, "failed to fetch account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(boutique.PasswordHash), []byte(password)); err != nil {
		return domain.Boutique{}, domain.Unauthorized(op, "Invalid credentials")
	}
	return boutique, nil
}

// Get fetches a boutique by ID.
func (s *boutiqueService) Get(ctx context.Context, id uuid.UUID) (domain.Boutique, error) {
	const op = "boutique.get"

	boutique, err := s.store.GetBoutiqueByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Boutique{}, domain.NotFound(op, "boutique", id.String())
		}
		return domain.Boutique{}, domain.Internal(err, op, "failed to fetch account")
	}
	return boutique, nil
}

// UpdateProfile edits profile fields.
func (s *boutiqueService) UpdateProfile(ctx context.Context, p domain.UpdateBoutiqueProfileParams) (domain.Boutique, error) {
	const op = "boutique.update_profile"

	p.BoutiqueName = strings.TrimSpace(p.BoutiqueName)
	p.OwnerName = strings.TrimSpace(p.OwnerName)
	p.Email = normalizeEmail(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	p.City = strings.TrimSpace(p.City)

	if p.BoutiqueName == "" {
		return domain.Boutique{}, domain.Invalid(op, "Boutique name is required")
	}
	if p.Email == "" {
		return domain.Boutique{}, domain.Invalid(op, "Email is required")
	}

	if err := s.store.UpdateBoutiqueProfile(ctx, p); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return domain.Boutique{}, domain.NotFound(op, "boutique", p.ID.String())
		case repository.IsUniqueViolation(err):
			return domain.Boutique{}, domain.Conflict(op, "Email or phone already in use")
		}
		return domain.Boutique{}, domain.Internal(err, op, "failed to update profile")
	}
	return s.Get(ctx, p.ID)
}

// ChangePassword verifies and replaces the password.
func (s *boutiqueService) ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	const op = "boutique.change_password"

	boutique, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(boutique.PasswordHash), []byte(currentPassword)); err != nil {
		return domain.Unauthorized(op, "Current password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), BcryptCost)
	if err != nil {
		return domain.Internal(err, op, "failed to hash password")
	}
	if err := s.store.UpdateBoutiquePassword(ctx, id, string(newHash)); err != nil {
		return domain.Internal(err, op, "failed to update password")
	}
	return nil
}

// ChangePlan moves the boutique to a new plan.
func (s *boutiqueService) ChangePlan(ctx context.Context, p domain.ChangePlanParams) (domain.Boutique, error) {
	const op = "boutique.change_plan"

	if !domain.ValidPlan(p.Plan) {
		return domain.Boutique{}, domain.Invalid(op, "Unknown plan")
	}
	plan := domain.ParsePlan(p.Plan)

	if err := s.store.UpdateBoutiquePlan(ctx, p.BoutiqueID, plan); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Boutique{}, domain.NotFound(op, "boutique", p.BoutiqueID.String())
		}
		return domain.Boutique{}, domain.Internal(err, op, "failed to update plan")
	}

	s.logger.Info("plan changed",
		"boutique_id", p.BoutiqueID,
		"plan", plan,
		"billing_cycle", p.BillingCycle,
		"payment_ref", p.PaymentRef,
	)
	return s.Get(ctx, p.BoutiqueID)
}

// Directory returns the public listing merged with showcases.
func (s *boutiqueService) Directory(ctx context.Context) ([]domain.BoutiqueListing, error) {
	const op = "boutique.directory"

	boutiques, err := s.store.ListBoutiques(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list boutiques")
	}
	showcases, err := s.store.ListShowcases(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list showcases")
	}

	listings := make([]domain.BoutiqueListing, 0, len(boutiques))
	for _, b := range boutiques {
		entry := domain.BoutiqueListing{
			ID:           b.ID,
			BoutiqueName: b.BoutiqueName,
			City:         b.City,
			Rating:       domain.DefaultShowcaseRating,
			CreatedAt:    b.CreatedAt,
		}
		if sc, ok := showcases[b.ID]; ok {
			entry.District = sc.District
			entry.Area = sc.Area
			entry.Tags = sc.Tags
			entry.Rating = sc.Rating
			entry.ImageURL = sc.ImageURL
		}
		listings = append(listings, entry)
	}
	return listings, nil
}

// validatePassword enforces password length requirements.
func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.Invalid("", "Password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return domain.Invalid("", "Password must be 72 characters or less")
	}
	return nil
}
