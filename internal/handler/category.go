package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/eventory/internal/catalog"
	"github.com/dukerupert/eventory/internal/model"
	"github.com/dukerupert/eventory/internal/store"
	"github.com/dukerupert/eventory/internal/websocket"
)

type CategoryHandler struct {
	categories CategoryStore
	images     images
	hub        Broadcaster
	logger     *slog.Logger
}

func NewCategoryHandler(cs CategoryStore, is ImageStore, hub Broadcaster, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		categories: cs,
		images:     images{store: is, folder: "categories", logger: logger},
		hub:        hub,
		logger:     logger,
	}
}

type categoryRequest struct {
	Name        *string    `json:"name"`
	Slug        *string    `json:"slug"`
	Description *string    `json:"description"`
	ParentID    optionalID `json:"parentId"`
	IsActive    *flexBool  `json:"isActive"`
}

func (req *categoryRequest) normalize() error {
	req.Name, req.Slug, req.Description = trimmed(req.Name), trimmed(req.Slug), trimmed(req.Description)
	if req.Name != nil && *req.Name == "" {
		return badRequest("name cannot be empty")
	}
	if req.Slug != nil && !catalog.ValidSlug(*req.Slug) {
		return badRequest("slug must be lowercase letters and digits separated by single hyphens")
	}
	return nil
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := store.ParseCategoryQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	categories, err := h.categories.List(r.Context(), q)
	if err != nil {
		h.logger.Error("list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeData(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.categories.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("get category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get category")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	writeData(w, http.StatusOK, c)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	img, err := decodeForm(w, r, &req)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	defer img.Close()

	if req.Name == nil || req.Slug == nil || *trimmed(req.Name) == "" || *trimmed(req.Slug) == "" {
		writeError(w, http.StatusBadRequest, "name and slug are required")
		return
	}
	if err := req.normalize(); err != nil {
		writeDecodeError(w, err)
		return
	}

	parent, ok := h.resolveParent(w, r, req.ParentID.Value)
	if !ok {
		return
	}

	placement := catalog.PlacementUnder(parent)
	c := &model.Category{
		Name:     *req.Name,
		Slug:     *req.Slug,
		ParentID: placement.ParentID,
		Level:    placement.Level,
		Path:     placement.Path,
		IsActive: true,
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.IsActive != nil {
		c.IsActive = bool(*req.IsActive)
	}

	if c.Image, err = h.images.upload(r.Context(), img); err != nil {
		h.images.writeUploadError(w, err)
		return
	}

	created, err := h.categories.Create(r.Context(), c)
	if err != nil {
		h.images.remove(r.Context(), c.Image)
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "a category with this name or slug already exists")
			return
		}
		h.logger.Error("create category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	broadcast(h.hub, websocket.EntityCategory, "created", created.ID)
	writeData(w, http.StatusCreated, created)
}

// resolveParent loads the requested parent. A nil id means the root. It
// writes a 400 when the parent does not exist.
func (h *CategoryHandler) resolveParent(w http.ResponseWriter, r *http.Request, id *string) (*model.Category, bool) {
	if id == nil {
		return nil, true
	}
	parent, err := h.categories.GetByID(r.Context(), *id)
	if err != nil {
		h.logger.Error("get parent category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get parent category")
		return nil, false
	}
	if parent == nil {
		writeError(w, http.StatusBadRequest, "parent category not found")
		return nil, false
	}
	return parent, true
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := r.Context()

	existing, err := h.categories.GetByID(ctx, id)
	if err != nil {
		h.logger.Error("get category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get category")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	var req categoryRequest
	img, err := decodeForm(w, r, &req)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	defer img.Close()
	if err := req.normalize(); err != nil {
		writeDecodeError(w, err)
		return
	}

	patch := model.CategoryPatch{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		IsActive:    boolValue(req.IsActive),
	}

	var descendants []model.Category
	if req.ParentID.Set {
		parent, ok := h.resolveParent(w, r, req.ParentID.Value)
		if !ok {
			return
		}
		if err := catalog.CheckParent(id, parent); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		placement := catalog.PlacementUnder(parent)
		patch.Placement = &placement

		if descendants, err = h.categories.ListDescendants(ctx, id); err != nil {
			h.logger.Error("list category descendants", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update category")
			return
		}
	}

	image, err := h.images.upload(ctx, img)
	if err != nil {
		h.images.writeUploadError(w, err)
		return
	}
	if image != "" {
		patch.Image = &image
	}

	updated, err := h.categories.Update(ctx, id, patch)
	if err != nil || updated == nil {
		h.images.remove(ctx, image)
		switch {
		case errors.Is(err, store.ErrDuplicate):
			writeError(w, http.StatusConflict, "a category with this name or slug already exists")
		case err != nil:
			h.logger.Error("update category", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update category")
		default:
			writeError(w, http.StatusNotFound, "category not found")
		}
		return
	}

	if patch.Placement != nil {
		for _, m := range catalog.Rebase(id, *patch.Placement, descendants) {
			if err := h.categories.SetPlacement(ctx, m.ID, m.Placement); err != nil {
				h.logger.Error("move descendant category", "id", m.ID, "moved", id, "error", err)
				writeError(w, http.StatusInternalServerError, "failed to update descendant categories")
				return
			}
		}
	}
	if image != "" {
		h.images.remove(ctx, existing.Image)
	}

	broadcast(h.hub, websocket.EntityCategory, "updated", id)
	writeData(w, http.StatusOK, updated)
}

// Delete removes the category only. Children keep their parentId and items
// keep their category reference.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.categories.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get category")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete category", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete category")
		return
	}
	h.images.remove(r.Context(), existing.Image)

	broadcast(h.hub, websocket.EntityCategory, "deleted", id)
	writeMessage(w, http.StatusOK, "category deleted")
}
