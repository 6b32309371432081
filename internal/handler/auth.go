package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/numberdesk/numberdesk/internal/model"
	"github.com/numberdesk/numberdesk/internal/server/middleware"
	"github.com/numberdesk/numberdesk/internal/service"
)

const msgInvalidCredentials = "Invalid credentials"

// AuthHandler serves login and logout.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

// loginRequest accepts both login shapes. Pointer fields tell an absent key
// from an empty one, which decides the flow.
type loginRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`

	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

func (req loginRequest) credential() bool {
	return req.Username != nil || req.Password != nil
}

func (req loginRequest) legacy() bool {
	return req.Name != nil || req.Email != nil || req.Phone != nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Login authenticates either an admin username/password, which yields a
// session token, or the configured legacy identity, which yields a signed
// bearer credential.
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgNoData)
		return
	}

	switch {
	case req.credential():
		h.credentialLogin(w, r, deref(req.Username), deref(req.Password))
	case req.legacy():
		h.legacyLogin(w, deref(req.Name), deref(req.Email), deref(req.Phone))
	default:
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
	}
}

func (h *AuthHandler) credentialLogin(w http.ResponseWriter, r *http.Request, username, password string) {
	tok, err := h.auth.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		writeInternal(w, r, h.logger, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, model.LoginResponse{
		Message:   "Login successful",
		Token:     tok.Value,
		TokenType: "bearer",
		ExpiresIn: int(tok.TTL.Seconds()),
	})
}

func (h *AuthHandler) legacyLogin(w http.ResponseWriter, name, email, phone string) {
	token, err := h.auth.LegacyLogin(name, email, phone)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}
	writeJSON(w, http.StatusOK, model.LegacyLoginResponse{AccessToken: token})
}

// Logout forgets the presented session token. A missing or unknown token is
// not an error.
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.BearerToken(r); token != "" {
		if err := h.auth.Logout(r.Context(), token); err != nil {
			writeInternal(w, r, h.logger, "logout", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "Logged out"})
}
