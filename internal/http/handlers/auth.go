package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/recruit-portal/internal/account"
	"github.com/hongminglow/recruit-portal/internal/http/respond"
	"github.com/hongminglow/recruit-portal/internal/middleware"
	"github.com/hongminglow/recruit-portal/internal/models/dto"
)

// AuthHandler owns the register, login, logout and current-user endpoints.
type AuthHandler struct {
	accounts *account.Service
	sessions *middleware.Sessions
	log      *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(accounts *account.Service, sessions *middleware.Sessions, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, log: logger}
}

// Routes attaches auth routes. limit wraps the credential endpoints.
func (h *AuthHandler) Routes(r chi.Router, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/register", h.handleRegister)
	r.With(limit).Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession)
		r.Post("/logout", h.handleLogout)
		r.Get("/me", h.handleMe)
	})
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := h.accounts.Register(r.Context(), account.RegisterInput{
		FullName:        req.FullName,
		NationalID:      req.NationalID,
		Address:         req.Address,
		Phone:           req.Phone,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondError(w, r, h.log, err, "failed to create user")
		return
	}

	respond.JSON(w, http.StatusCreated, "Registration successful. Please log in.", user)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	// Reusing the caller's client id means signing in again on the same
	// browser replaces its previous session.
	sess, err := h.accounts.Login(r.Context(), h.sessions.ClientID(r), req.NationalID, req.Password)
	if err != nil {
		respondError(w, r, h.log, err, "failed to log in")
		return
	}
	user, err := h.accounts.Authorize(r.Context(), sess)
	if err != nil {
		respondError(w, r, h.log, err, "failed to log in")
		return
	}
	if err := h.sessions.Save(w, r, sess); err != nil {
		h.log.WarnContext(r.Context(), "save session cookie failed", slog.Any("error", err))
	}

	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      user,
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Logout(r.Context(), middleware.SessionFrom(r.Context())); err != nil {
		respondError(w, r, h.log, err, "failed to log out")
		return
	}
	if err := h.sessions.Clear(w, r); err != nil {
		h.log.WarnContext(r.Context(), "clear session cookie failed", slog.Any("error", err))
	}
	respond.JSON(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.Authorize(r.Context(), middleware.SessionFrom(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err, "failed to load user")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", user)
}
