package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/eventory/internal/auth"
	"github.com/dukerupert/eventory/internal/middleware"
	"github.com/dukerupert/eventory/internal/model"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(adminID string, role model.Role) (string, error)
	TTL() time.Duration
}

// CookieOptions controls the attributes of the session cookie.
type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

type AuthHandler struct {
	admins AdminStore
	tokens TokenIssuer
	cookie CookieOptions
	logger *slog.Logger
}

func NewAuthHandler(as AdminStore, tokens TokenIssuer, cookie CookieOptions, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{admins: as, tokens: tokens, cookie: cookie, logger: logger}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	admin, err := h.admins.GetByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	// Unknown email and wrong password get the same answer and bcrypt cost.
	var hash string
	if admin != nil {
		hash = admin.Password
	}
	if !auth.CheckPassword(hash, req.Password) {
		h.logger.Info("failed login", "email", req.Email, "remote", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.tokens.Issue(admin.ID, admin.Role)
	if err != nil {
		h.logger.Error("issue session token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
	h.logger.Info("admin logged in", "admin", admin.ID)
	writeData(w, http.StatusOK, admin)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
	writeMessage(w, http.StatusOK, "logged out")
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	admin, err := h.admins.GetByID(r.Context(), ac.AdminID)
	if err != nil {
		h.logger.Error("get current admin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get admin")
		return
	}
	if admin == nil {
		writeError(w, http.StatusNotFound, "admin not found")
		return
	}
	writeData(w, http.StatusOK, admin)
}
