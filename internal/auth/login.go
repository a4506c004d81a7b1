package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/facturaIA/invoice-ai-service/internal/db"
	"github.com/facturaIA/invoice-ai-service/internal/models"
	"github.com/facturaIA/invoice-ai-service/internal/respond"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 6

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileRequest holds the editable profile fields. Empty values keep the
// current ones; email cannot be changed.
type ProfileRequest struct {
	Name         string `json:"name"`
	BusinessName string `json:"businessName"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
}

// UserResponse is the public view of an account, optionally with a token
type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	BusinessName string    `json:"businessName"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	Token        string    `json:"token,omitempty"`
}

func newUserResponse(u *models.User, token string) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		BusinessName: u.BusinessName,
		Address:      u.Address,
		Phone:        u.Phone,
		Token:        token,
	}
}

// Handler serves account endpoints
type Handler struct {
	users  db.UserRepository
	tokens *TokenManager
	logger *zap.Logger
	// bcrypt cost; tests lower it
	cost int
	now  func() time.Time
}

func NewHandler(users db.UserRepository, tokens *TokenManager, logger *zap.Logger) *Handler {
	return &Handler{
		users:  users,
		tokens: tokens,
		logger: logger.Named("auth"),
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

// RegisterRoutes mounts register/login on public and the profile routes on
// protected, which must already run JWTMiddleware.
func (h *Handler) RegisterRoutes(public, protected *mux.Router) {
	public.HandleFunc("/api/auth/register", h.Register).Methods("POST")
	public.HandleFunc("/api/auth/login", h.Login).Methods("POST")
	protected.HandleFunc("/auth/me", h.Me).Methods("GET")
	protected.HandleFunc("/auth/me", h.UpdateProfile).Methods("PUT")
}

// Register handles POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respond.Fail(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		respond.Fail(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if len(req.Password) < MinPasswordLength {
		respond.Fail(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cost)
	if err != nil {
		h.logger.Error("hash password", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	now := h.now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			respond.Fail(w, http.StatusBadRequest, "Email already in use")
			return
		}
		h.logger.Error("create user", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		h.logger.Error("generate token", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	respond.OK(w, http.StatusCreated, "", newUserResponse(user, token))
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.Fail(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, db.ErrNotFound) {
		respond.Fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		h.logger.Error("load user", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respond.Fail(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		h.logger.Error("generate token", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond.OK(w, http.StatusOK, "", newUserResponse(user, token))
}

// Me handles GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "Unauthorized: user not found")
		return
	}
	respond.OK(w, http.StatusOK, "", newUserResponse(user, ""))
}

// UpdateProfile handles PUT /api/auth/me
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	current, ok := GetUserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "Unauthorized: user not found")
		return
	}

	var req ProfileRequest
	if !respond.Decode(w, r, &req) {
		return
	}

	user := *current
	user.Name = keep(req.Name, user.Name)
	user.BusinessName = keep(req.BusinessName, user.BusinessName)
	user.Address = keep(req.Address, user.Address)
	user.Phone = keep(req.Phone, user.Phone)
	user.UpdatedAt = h.now().UTC()

	if err := h.users.UpdateUser(r.Context(), &user); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respond.Fail(w, http.StatusUnauthorized, "Unauthorized: user not found")
			return
		}
		h.logger.Error("update profile", zap.String("user_id", user.ID.String()), zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respond.OK(w, http.StatusOK, "Profile updated", newUserResponse(&user, ""))
}

func keep(v, current string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return current
}
