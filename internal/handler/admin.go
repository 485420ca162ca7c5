package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/eventory/internal/auth"
	"github.com/dukerupert/eventory/internal/model"
	"github.com/dukerupert/eventory/internal/store"
	"github.com/dukerupert/eventory/internal/websocket"
)

// AdminHandler manages admin accounts. Routes are expected behind the
// superadmin gate.
type AdminHandler struct {
	admins AdminStore
	hub    Broadcaster
	logger *slog.Logger
}

func NewAdminHandler(as AdminStore, hub Broadcaster, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admins: as, hub: hub, logger: logger}
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.List(r.Context())
	if err != nil {
		h.logger.Error("list admins", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list admins")
		return
	}
	writeData(w, http.StatusOK, admins)
}

func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string     `json:"name"`
		Email    string     `json:"email"`
		Password string     `json:"password"`
		Role     model.Role `json:"role"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	req.Name, req.Email = strings.TrimSpace(req.Name), normalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
		return
	}
	if req.Role == "" {
		req.Role = model.RoleAdmin
	}
	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "role must be admin or superadmin")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash admin password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create admin")
		return
	}

	created, err := h.admins.Create(r.Context(), &model.Admin{
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		Role:     req.Role,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "an admin with this email already exists")
			return
		}
		h.logger.Error("create admin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create admin")
		return
	}

	h.logger.Info("admin created", "admin", created.ID, "role", created.Role, "by", auth.AdminID(r.Context()))
	broadcast(h.hub, websocket.EntityAdmin, "created", created.ID)
	writeData(w, http.StatusCreated, created)
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == auth.AdminID(r.Context()) {
		writeError(w, http.StatusBadRequest, "you cannot delete your own account")
		return
	}

	existing, err := h.admins.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get admin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get admin")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "admin not found")
		return
	}
	if err := h.admins.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete admin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete admin")
		return
	}

	h.logger.Info("admin deleted", "admin", id, "by", auth.AdminID(r.Context()))
	broadcast(h.hub, websocket.EntityAdmin, "deleted", id)
	writeMessage(w, http.StatusOK, "admin deleted")
}

func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == auth.AdminID(r.Context()) {
		writeError(w, http.StatusBadRequest, "you cannot change your own role")
		return
	}

	var req struct {
		Role model.Role `json:"role"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if !req.Role.Valid() {
		writeError(w, http.StatusBadRequest, "role must be admin or superadmin")
		return
	}

	updated, err := h.admins.UpdateRole(r.Context(), id, req.Role)
	if err != nil {
		h.logger.Error("update admin role", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "admin not found")
		return
	}

	h.logger.Info("admin role changed", "admin", id, "role", req.Role, "by", auth.AdminID(r.Context()))
	broadcast(h.hub, websocket.EntityAdmin, "role_updated", id)
	writeData(w, http.StatusOK, updated)
}
