// Package handler contains HTTP handlers for the Cloche marketplace API.
//
// This file implements account handlers: signup, login, plan changes,
// profile, showcase, dashboard, and the public boutique directory.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/clochehq/cloche/internal/domain"
	"github.com/clochehq/cloche/internal/service"
)

// =============================================================================
// Handler Configuration
// =============================================================================

// AuthHandler handles account-related HTTP requests.
type AuthHandler struct {
	boutiques service.BoutiqueService
	users     service.UserService
	showcases service.ShowcaseService
	quota     service.QuotaService
	logger    *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	boutiques service.BoutiqueService,
	users service.UserService,
	showcases service.ShowcaseService,
	quota service.QuotaService,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		boutiques: boutiques,
		users:     users,
		showcases: showcases,
		quota:     quota,
		logger:    logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers all account routes with the provided mux.
//
// Routes:
// - POST /api/auth/signup                                -> Signup (partner or user by role)
// - POST /api/auth/login                                 -> LoginBoutique
// - POST /api/auth/login-user                            -> LoginUser
// - POST /api/auth/upgrade-plan                          -> ChangePlan
// - POST /api/auth/update-plan                           -> ChangePlan
// - GET  /api/auth/profile/{boutiqueID}                  -> GetProfile
// - PUT  /api/auth/profile/{boutiqueID}                  -> UpdateProfile
// - PUT  /api/auth/profile/{boutiqueID}/password         -> ChangePassword
// - GET  /api/auth/profile/{boutiqueID}/showcase         -> GetShowcase
// - PUT  /api/auth/profile/{boutiqueID}/showcase         -> SaveShowcase
// - POST /api/auth/profile/{boutiqueID}/showcase-image   -> SetShowcaseImage
// - GET  /api/auth/boutiques                             -> Directory
// - GET  /api/auth/dashboard/{boutiqueID}                -> Dashboard
// - GET  /api/auth/user/{userID}                         -> GetUser
// - PUT  /api/auth/user/{userID}                         -> UpdateUser
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/signup", h.Signup)
	mux.HandleFunc("POST /api/auth/login", h.LoginBoutique)
	mux.HandleFunc("POST /api/auth/login-user", h.LoginUser)
	mux.HandleFunc("POST /api/auth/upgrade-plan", h.ChangePlan)
	mux.HandleFunc("POST /api/auth/update-plan", h.ChangePlan)
	mux.HandleFunc("GET /api/auth/profile/{boutiqueID}", h.GetProfile)
	mux.HandleFunc("PUT /api/auth/profile/{boutiqueID}", h.UpdateProfile)
	mux.HandleFunc("PUT /api/auth/profile/{boutiqueID}/password", h.ChangePassword)
	mux.HandleFunc("GET /api/auth/profile/{boutiqueID}/showcase", h.GetShowcase)
	mux.HandleFunc("PUT /api/auth/profile/{boutiqueID}/showcase", h.SaveShowcase)
	mux.HandleFunc("POST /api/auth/profile/{boutiqueID}/showcase-image", h.SetShowcaseImage)
	mux.HandleFunc("GET /api/auth/boutiques", h.Directory)
	mux.HandleFunc("GET /api/auth/dashboard/{boutiqueID}", h.Dashboard)
	mux.HandleFunc("GET /api/auth/user/{userID}", h.GetUser)
	mux.HandleFunc("PUT /api/auth/user/{userID}", h.UpdateUser)
}

// =============================================================================
// Signup / Login
// =============================================================================

type signupRequest struct {
	Role         string `json:"role"` // "partner" for boutiques, anything else is a customer
	Name         string `json:"name"`
	BoutiqueName string `json:"boutique_name"`
	OwnerName    string `json:"owner_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	City         string `json:"city"`
	Password     string `json:"password"`
}

// Signup creates a boutique or customer account depending on role.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if req.Role == "partner" {
		boutique, err := h.boutiques.Signup(r.Context(), domain.SignupBoutiqueParams{
			BoutiqueName: req.BoutiqueName,
			OwnerName:    req.OwnerName,
			Email:        req.Email,
			Phone:        req.Phone,
			City:         req.City,
			Password:     req.Password,
		})
		if err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		respondJSON(w, http.StatusCreated, boutique)
		return
	}

	user, err := h.users.Signup(r.Context(), domain.SignupUserParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// LoginBoutique authenticates a boutique by email or phone.
func (h *AuthHandler) LoginBoutique(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	identifier := req.Identifier
	if identifier == "" {
		identifier = req.Email
	}

	boutique, err := h.boutiques.Login(r.Context(), identifier, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, boutique)
}

// LoginUser authenticates a customer by email.
func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// =============================================================================
// Plan Changes
// =============================================================================

type changePlanRequest struct {
	BoutiqueID   string `json:"boutique_id"`
	Plan         string `json:"plan"`
	BillingCycle string `json:"billing_cycle"`
	PaymentRef   string `json:"payment_ref"`
}

// ChangePlan moves a boutique to a new plan. Serves both the upgrade flow
// (with billing cycle and payment reference) and the bare plan update.
func (h *AuthHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	var req changePlanRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	boutiqueID, err := parseUUIDField(req.BoutiqueID, "boutique_id")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	boutique, err := h.boutiques.ChangePlan(r.Context(), domain.ChangePlanParams{
		BoutiqueID:   boutiqueID,
		Plan:         req.Plan,
		BillingCycle: req.BillingCycle,
		PaymentRef:   req.PaymentRef,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, boutique)
}

// =============================================================================
// Profile
// =============================================================================

// GetProfile returns the boutique's account.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	boutiqueID, err := pathUUID(r, "boutiqueID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	boutique, err := h.boutiques.Get(r.Context(), boutiqueID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, boutique)
}

type updateProfileRequest struct {
	BoutiqueName string `json:"boutique_name"`
	OwnerName    string `json:"owner_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	City         string `json:"city"`
}

// UpdateProfile edits the boutique's profile fields.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	boutiqueID, err := pathUUID(r, "boutiqueID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	boutique, err := h.boutiques.UpdateProfile(r.Context(), domain.UpdateBoutiqueProfileParams{
		ID:           boutiqueID,
		BoutiqueName: req.BoutiqueName,
		OwnerName:    req.OwnerName,
		Email:        req.Email,
		Phone:        req.Phone,
		City:         req.City,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, boutique)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword verifies and replaces the boutique's password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	boutiqueID, err := pathUUID(r, "boutiqueID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.boutiques.ChangePassword(r.Context(), boutiqueID, req.CurrentPassword, req.NewPassword); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

// =============================================================================
// Showcase
// =============================================================================

// GetShowcase returns the boutique's showcase, defaulted when never saved.
func (h *AuthHandler) GetShowcase(w http.ResponseWriter, r *http.Request) {
	boutiqueID, err := pathUUID(r, "boutiqueID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	showcase, err := h.showcases.Get(r.Context(), boutiqueID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, showcase)
}

type saveShowcaseRequest struct {
	District string  `json:"district"`
	Area     string  `json:"area"`
	Tags     string  `json:"tags"`
	Rating   float64 `json:"rating"`
}

// SaveShowcase upserts the boutique's showcase fields.
func (h *AuthHandler) SaveShowcase(w http.ResponseWriter, r *http.Request) {
	boutiqueID, err := pathUUID(r, "boutiqueID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req saveShowcaseRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	showcase, err := h.showcases.Save(r.Context(), domain.UpsertShowcaseParams{
		BoutiqueID: boutiqueID,
		District:   req.District,
		Area:       req.Area,
		Tags:       req.Tags,
		Rating:     req.Rating,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, showcase)
}

// SetShowcaseImage stores a new showcase image from a multipart upload.
func (h *AuthHandler) SetShowcaseImage(w http.ResponseWriter, r *http.Request) {
	boutiqueID, err := pathUUID(r, "boutiqueID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := r.ParseMultipartForm(domain.MaxImageSize); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid("", "Failed to parse upload"))
		return
	}

	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		ErrorResponse(w, r, h.logger, domain.Invalid("", "Image file is required"))
		return
	}

	showcase, err := h.showcases.SetImage(r.Context(), boutiqueID, files[0])
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, showcase)
}

// =============================================================================
// Directory / Dashboard
// =============================================================================

// Directory returns the public boutique listing.
func (h *AuthHandler) Directory(w http.ResponseWriter, r *http.Request) {
	listings, err := h.boutiques.Directory(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, listings)
}

// dashboardResponse combines account identity with plan usage.
type dashboardResponse struct {
	BoutiqueName string            `json:"boutique_name"`
	OwnerName    string            `json:"owner_name"`
	Usage        *domain.PlanUsage `json:"usage"`
}

// Dashboard returns the boutique's usage against its plan caps.
func (h *AuthHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	boutiqueID, err := pathUUID(r, "boutiqueID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	boutique, err := h.boutiques.Get(r.Context(), boutiqueID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	usage, err := h.quota.Usage(r.Context(), boutiqueID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, dashboardResponse{
		BoutiqueName: boutique.BoutiqueName,
		OwnerName:    boutique.OwnerName,
		Usage:        usage,
	})
}

// =============================================================================
// Customer Accounts
// =============================================================================

// GetUser returns a customer account.
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type updateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateUser edits a customer's name and email.
func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "userID")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.users.Update(r.Context(), userID, req.Name, req.Email)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
