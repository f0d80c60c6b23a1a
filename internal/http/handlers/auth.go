package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/rs/zerolog"

	"github.com/yourusername/auth-starter/internal/auth"
	"github.com/yourusername/auth-starter/internal/http/respond"
	"github.com/yourusername/auth-starter/internal/middleware"
	"github.com/yourusername/auth-starter/internal/models"
	"github.com/yourusername/auth-starter/internal/models/dto"
	"github.com/yourusername/auth-starter/internal/storage"
)

// AuthHandler owns the register/login/profile/logout endpoints.
type AuthHandler struct {
	store    storage.UserStore
	tokens   *auth.TokenManager
	sessions *auth.SessionTransport
	logger   zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(store storage.UserStore, tokens *auth.TokenManager, sessions *auth.SessionTransport, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens, sessions: sessions, logger: logger}
}

// Register attaches auth routes to the mux. Profile and logout sit behind the
// authorization gate.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/auth/register", h.handleRegister)
	mux.HandleFunc("/api/auth/login", h.handleLogin)
	mux.Handle("/api/auth/profile", h.gate(http.HandlerFunc(h.handleProfile)))
	mux.Handle("/api/auth/logout", h.gate(http.HandlerFunc(h.handleLogout)))
}

func (h *AuthHandler) gate(next http.Handler) http.Handler {
	return middleware.RequireAuth(h.tokens, h.sessions, h.store, h.logger, next)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := req.Validate(); err != nil {
		var fields validation.Errors
		if errors.As(err, &fields) {
			respond.ValidationError(w, fields)
			return
		}
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error().Err(err).Msg("hash password")
		respond.Error(w, http.StatusInternalServerError, "failed to process registration")
		return
	}

	created, err := h.store.Create(r.Context(), models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: passwordHash,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicateEmail):
			respond.Error(w, http.StatusConflict, "user with this email already exists")
		default:
			h.logger.Error().Err(err).Msg("create user")
			respond.Error(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	h.issueSession(w, created, http.StatusCreated, "user registered successfully")
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := req.Validate(); err != nil {
		var fields validation.Errors
		if errors.As(err, &fields) {
			respond.ValidationError(w, fields)
			return
		}
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	// Unknown email and wrong password produce the same response so the
	// endpoint cannot be used to enumerate accounts.
	user, err := h.store.FindByEmailWithHash(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error().Err(err).Msg("fetch user for login")
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.issueSession(w, user.WithoutHash(), http.StatusOK, "login successful")
}

func (h *AuthHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	user, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not authorized")
		return
	}
	respond.JSON(w, http.StatusOK, "profile retrieved", map[string]models.User{"user": user})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.sessions.Clear(w)
	respond.JSON(w, http.StatusOK, "logged out successfully", nil)
}

// issueSession mints a token, sets the session cookie, and writes the auth
// payload. The token rides in the body as well for header-based clients.
func (h *AuthHandler) issueSession(w http.ResponseWriter, user models.User, status int, message string) {
	token, err := h.tokens.Generate(user.ID)
	if err != nil {
		h.logger.Error().Err(err).Msg("generate token")
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	h.sessions.Attach(w, token)
	respond.JSON(w, status, message, dto.AuthResponse{Token: token, User: user})
}
