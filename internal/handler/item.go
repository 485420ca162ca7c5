package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/eventory/internal/model"
	"github.com/dukerupert/eventory/internal/store"
	"github.com/dukerupert/eventory/internal/websocket"
)

var errInvalidPrices = badRequest("invalid prices format")

type ItemHandler struct {
	items      ItemStore
	categories CategoryStore
	vendors    VendorStore
	images     images
	hub        Broadcaster
	logger     *slog.Logger
}

func NewItemHandler(is ItemStore, cs CategoryStore, vs VendorStore, imgs ImageStore, hub Broadcaster, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		items:      is,
		categories: cs,
		vendors:    vs,
		images:     images{store: imgs, folder: "items", logger: logger},
		hub:        hub,
		logger:     logger,
	}
}

// priceList accepts a JSON array of prices or a string holding one, which
// is how multipart forms carry it. Prices may be numbers or numeric strings.
type priceList []model.Price

func (p *priceList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		data = []byte(s)
	}
	var in []struct {
		City  string          `json:"city"`
		Price json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return errInvalidPrices
	}
	out := make(priceList, 0, len(in))
	for _, v := range in {
		var price float64
		if raw := strings.Trim(strings.TrimSpace(string(v.Price)), `"`); raw != "" && raw != "null" {
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return errInvalidPrices
			}
			price = f
		}
		out = append(out, model.Price{City: strings.TrimSpace(v.City), Price: price})
	}
	*p = out
	return nil
}

func (p priceList) validate() error {
	if len(p) == 0 {
		return badRequest("at least one price is required")
	}
	for _, v := range p {
		if v.City == "" || v.Price <= 0 {
			return badRequest("each price needs a city and a price greater than 0")
		}
	}
	return nil
}

type itemRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Prices      *priceList `json:"prices"`
	Category    *string    `json:"category"`
	Vendor      optionalID `json:"vendor"`
	IsActive    *flexBool  `json:"isActive"`
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := store.ParseItemQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.items.List(r.Context(), q)
	if err != nil {
		h.logger.Error("list items", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	writeData(w, http.StatusOK, items)
}

func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.items.GetView(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("get item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if view == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	writeData(w, http.StatusOK, view)
}

// checkRefs verifies that the referenced category and vendor exist. It writes
// the response and returns false when they do not.
func (h *ItemHandler) checkRefs(w http.ResponseWriter, r *http.Request, categoryID, vendorID *string) bool {
	if categoryID != nil {
		c, err := h.categories.GetByID(r.Context(), *categoryID)
		if err != nil {
			h.logger.Error("get item category", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get category")
			return false
		}
		if c == nil {
			writeError(w, http.StatusBadRequest, "category not found")
			return false
		}
	}
	if vendorID != nil {
		v, err := h.vendors.GetByID(r.Context(), *vendorID)
		if err != nil {
			h.logger.Error("get item vendor", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get vendor")
			return false
		}
		if v == nil {
			writeError(w, http.StatusBadRequest, "vendor not found")
			return false
		}
	}
	return true
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	img, err := decodeForm(w, r, &req)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	defer img.Close()

	req.Name, req.Category, req.Description = trimmed(req.Name), trimmed(req.Category), trimmed(req.Description)
	if req.Name == nil || *req.Name == "" || req.Category == nil || *req.Category == "" {
		writeError(w, http.StatusBadRequest, "name and category are required")
		return
	}
	var prices priceList
	if req.Prices != nil {
		prices = *req.Prices
	}
	if err := prices.validate(); err != nil {
		writeDecodeError(w, err)
		return
	}
	if !h.checkRefs(w, r, req.Category, req.Vendor.Value) {
		return
	}

	it := &model.Item{
		Name:       *req.Name,
		Prices:     prices,
		CategoryID: *req.Category,
		VendorID:   req.Vendor.Value,
		IsActive:   true,
	}
	if req.Description != nil {
		it.Description = *req.Description
	}
	if req.IsActive != nil {
		it.IsActive = bool(*req.IsActive)
	}

	if it.Image, err = h.images.upload(r.Context(), img); err != nil {
		h.images.writeUploadError(w, err)
		return
	}

	created, err := h.items.Create(r.Context(), it)
	if err != nil {
		h.images.remove(r.Context(), it.Image)
		h.logger.Error("create item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	broadcast(h.hub, websocket.EntityItem, "created", created.ID)
	h.writeView(w, r, created, http.StatusCreated)
}

// writeView responds with the populated form of it, falling back to the bare
// item when the lookup fails.
func (h *ItemHandler) writeView(w http.ResponseWriter, r *http.Request, it *model.Item, status int) {
	view, err := h.items.GetView(r.Context(), it.ID)
	if err != nil || view == nil {
		if err != nil {
			h.logger.Warn("populate item", "id", it.ID, "error", err)
		}
		writeData(w, status, it)
		return
	}
	writeData(w, status, view)
}

func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ctx := r.Context()

	existing, err := h.items.GetByID(ctx, id)
	if err != nil {
		h.logger.Error("get item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	var req itemRequest
	img, err := decodeForm(w, r, &req)
	if err != nil {
		writeDecodeError(w, err)
		return
	}
	defer img.Close()

	req.Name, req.Category, req.Description = trimmed(req.Name), trimmed(req.Category), trimmed(req.Description)
	if req.Name != nil && *req.Name == "" {
		writeError(w, http.StatusBadRequest, "name cannot be empty")
		return
	}
	if req.Category != nil && *req.Category == "" {
		writeError(w, http.StatusBadRequest, "category cannot be empty")
		return
	}
	patch := model.ItemPatch{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.Category,
		VendorSet:   req.Vendor.Set,
		VendorID:    req.Vendor.Value,
		IsActive:    boolValue(req.IsActive),
	}
	if req.Prices != nil {
		if err := req.Prices.validate(); err != nil {
			writeDecodeError(w, err)
			return
		}
		patch.Prices = *req.Prices
	}
	if !h.checkRefs(w, r, req.Category, req.Vendor.Value) {
		return
	}

	image, err := h.images.upload(ctx, img)
	if err != nil {
		h.images.writeUploadError(w, err)
		return
	}
	if image != "" {
		patch.Image = &image
	}

	updated, err := h.items.Update(ctx, id, patch)
	if err != nil || updated == nil {
		h.images.remove(ctx, image)
		if err != nil {
			h.logger.Error("update item", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update item")
			return
		}
		writeError(w, http.StatusNotFound, "item not found")
		return
	}
	if image != "" {
		h.images.remove(ctx, existing.Image)
	}

	broadcast(h.hub, websocket.EntityItem, "updated", id)
	h.writeView(w, r, updated, http.StatusOK)
}

// Deactivate hides the item while keeping the record and its image.
func (h *ItemHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	inactive := false

	updated, err := h.items.Update(r.Context(), id, model.ItemPatch{IsActive: &inactive})
	if err != nil {
		h.logger.Error("deactivate item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to deactivate item")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	broadcast(h.hub, websocket.EntityItem, "deactivated", id)
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: updated, Message: "item deactivated"})
}

// Delete removes the remote image and then the record.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.items.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	h.images.remove(r.Context(), existing.Image)
	if err := h.items.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete item", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	broadcast(h.hub, websocket.EntityItem, "deleted", id)
	writeMessage(w, http.StatusOK, "item deleted")
}
