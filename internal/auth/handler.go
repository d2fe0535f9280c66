package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/ecotrack/backend/internal/apierrors"
	"github.com/ecotrack/backend/internal/correlation"
	"github.com/ecotrack/backend/internal/model"
	"github.com/ecotrack/backend/internal/repository"
)

const (
	minPasswordLen = 6
	minFullNameLen = 2
	// bcrypt ignores everything past this many bytes.
	bcryptMaxBytes = 72
)

// Handler exposes HTTP endpoints for authentication.
type Handler struct {
	jwtMgr   *JWTManager
	userRepo repository.UserRepository
	logger   *slog.Logger
	cost     int
}

// NewHandler creates a new auth Handler.
func NewHandler(jwtMgr *JWTManager, userRepo repository.UserRepository, logger *slog.Logger) *Handler {
	return &Handler{
		jwtMgr:   jwtMgr,
		userRepo: userRepo,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the payload for POST /auth/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (req *SignupRequest) normalize() []fieldError {
	req.Email = normalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	var fields []fieldError
	if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != req.Email {
		fields = append(fields, fieldError{"email", "value is not a valid email address"})
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLen {
		fields = append(fields, fieldError{"password", "must be at least 6 characters"})
	}
	if utf8.RuneCountInString(req.FullName) < minFullNameLen {
		fields = append(fields, fieldError{"full_name", "must be at least 2 characters"})
	}
	return fields
}

// TokenResponse is returned by signup and login.
type TokenResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        model.UserInfo `json:"user"`
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.NewBadRequestError("invalid request body").Write(w, r)
		return
	}
	if fields := req.normalize(); len(fields) > 0 {
		apierrors.NewValidationError("invalid signup request", fields).Write(w, r)
		return
	}

	log := correlation.Logger(r.Context(), h.logger)

	existing, err := h.userRepo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		log.Error("failed to look up email", "error", err)
		apierrors.NewInternalError("failed to create user").Write(w, r)
		return
	}
	if existing != nil {
		apierrors.NewBadRequestError("Email already registered").Write(w, r)
		return
	}

	passwordHash, err := h.hashPassword(req.Password)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		apierrors.NewInternalError("failed to hash password").Write(w, r)
		return
	}

	user := &model.User{
		BaseEntity:   model.NewBaseEntity(),
		Email:        req.Email,
		PasswordHash: passwordHash,
		FullName:     req.FullName,
		Role:         model.RoleUser,
	}
	user.UpdatedAt = user.CreatedAt
	if err := h.userRepo.Create(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			apierrors.NewBadRequestError("Email already registered").Write(w, r)
			return
		}
		log.Error("failed to create user", "error", err)
		apierrors.NewInternalError("failed to create user").Write(w, r)
		return
	}

	log.Info("user registered", "user_id", user.ID)
	h.writeToken(w, r, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.NewBadRequestError("invalid request body").Write(w, r)
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		apierrors.NewValidationError("email and password are required", nil).Write(w, r)
		return
	}

	user, err := h.userRepo.GetByEmail(r.Context(), req.Email)
	if err != nil {
		correlation.Logger(r.Context(), h.logger).Error("failed to look up email", "error", err)
		apierrors.NewInternalError("failed to log in").Write(w, r)
		return
	}
	if user == nil || !checkPassword(user.PasswordHash, req.Password) {
		apierrors.NewUnauthorizedError("Invalid email or password").Write(w, r)
		return
	}

	h.writeToken(w, r, http.StatusOK, user)
}

// Me handles GET /auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		apierrors.NewUnauthorizedError("Not authenticated").Write(w, r)
		return
	}
	writeJSON(w, http.StatusOK, user.AdminInfo())
}

func (h *Handler) writeToken(w http.ResponseWriter, r *http.Request, status int, user *model.User) {
	token, err := h.jwtMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		correlation.Logger(r.Context(), h.logger).Error("failed to generate token", "error", err)
		apierrors.NewInternalError("failed to generate token").Write(w, r)
		return
	}
	writeJSON(w, status, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user.Info(),
	})
}

func (h *Handler) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(password)) == nil
}

func truncatePassword(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
