package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/eventory/internal/auth"
	"github.com/dukerupert/eventory/internal/model"
	"github.com/dukerupert/eventory/internal/store"
	"github.com/dukerupert/eventory/internal/websocket"
)

type VendorHandler struct {
	vendors VendorStore
	hub     Broadcaster
	logger  *slog.Logger
}

func NewVendorHandler(vs VendorStore, hub Broadcaster, logger *slog.Logger) *VendorHandler {
	return &VendorHandler{vendors: vs, hub: hub, logger: logger}
}

// vendorRequest carries vendor fields. Password is only read on create.
type vendorRequest struct {
	Name        *string            `json:"name"`
	Email       *string            `json:"email"`
	Password    string             `json:"password"`
	Phone       *string            `json:"phone"`
	Address     *string            `json:"address"`
	CompanyName *string            `json:"companyName"`
	PaymentMode *model.PaymentMode `json:"paymentMode"`
	UPIID       *string            `json:"upiId"`
	BankDetails *model.BankDetails `json:"bankDetails"`
	City        *string            `json:"city"`
	IsActive    *bool              `json:"isActive"`
}

func (req *vendorRequest) normalize() {
	req.Name, req.Phone, req.Address = trimmed(req.Name), trimmed(req.Phone), trimmed(req.Address)
	req.CompanyName, req.UPIID, req.City = trimmed(req.CompanyName), trimmed(req.UPIID), trimmed(req.City)
	if req.Email != nil {
		e := normalizeEmail(*req.Email)
		req.Email = &e
	}
	if b := req.BankDetails; b != nil {
		b.AccountNumber = strings.TrimSpace(b.AccountNumber)
		b.IFSCCode = strings.ToUpper(strings.TrimSpace(b.IFSCCode))
		b.AccountHolderName = strings.TrimSpace(b.AccountHolderName)
	}
}

func (req *vendorRequest) patch() model.VendorPatch {
	return model.VendorPatch{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		CompanyName: req.CompanyName,
		PaymentMode: req.PaymentMode,
		UPIID:       req.UPIID,
		BankDetails: req.BankDetails,
		City:        req.City,
		IsActive:    req.IsActive,
	}
}

func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := store.ParseVendorQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	vendors, err := h.vendors.List(r.Context(), q)
	if err != nil {
		h.logger.Error("list vendors", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list vendors")
		return
	}
	writeData(w, http.StatusOK, vendors)
}

func (h *VendorHandler) Get(w http.ResponseWriter, r *http.Request) {
	v, ok := h.load(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, v)
}

// load fetches the vendor named by the path, writing 404 or 500 on failure.
func (h *VendorHandler) load(w http.ResponseWriter, r *http.Request) (*model.Vendor, bool) {
	v, err := h.vendors.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("get vendor", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get vendor")
		return nil, false
	}
	if v == nil {
		writeError(w, http.StatusNotFound, "vendor not found")
		return nil, false
	}
	return v, true
}

func (h *VendorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req vendorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	req.normalize()

	if req.Name == nil || *req.Name == "" || req.Email == nil || *req.Email == "" || req.Password == "" || req.PaymentMode == nil {
		writeError(w, http.StatusBadRequest, "name, email, password and paymentMode are required")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
		return
	}

	v := &model.Vendor{IsActive: true}
	req.patch().Apply(v)
	if err := v.ValidatePayment(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash vendor password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create vendor")
		return
	}
	v.Password = hash

	created, err := h.vendors.Create(r.Context(), v)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "a vendor with this email already exists")
			return
		}
		h.logger.Error("create vendor", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create vendor")
		return
	}

	broadcast(h.hub, websocket.EntityVendor, "created", created.ID)
	writeData(w, http.StatusCreated, created)
}

// Update applies a partial update. A password in the body is ignored.
func (h *VendorHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}

	var req vendorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	req.normalize()
	if req.Name != nil && *req.Name == "" {
		writeError(w, http.StatusBadRequest, "name cannot be empty")
		return
	}
	if req.Email != nil && *req.Email == "" {
		writeError(w, http.StatusBadRequest, "email cannot be empty")
		return
	}

	patch := req.patch()
	if req.PaymentMode != nil || req.UPIID != nil || req.BankDetails != nil {
		merged := *existing
		patch.Apply(&merged)
		if err := merged.ValidatePayment(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	h.save(w, r, existing.ID, patch, "updated")
}

func (h *VendorHandler) save(w http.ResponseWriter, r *http.Request, id string, patch model.VendorPatch, action string) {
	updated, err := h.vendors.Update(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "a vendor with this email already exists")
			return
		}
		h.logger.Error("update vendor", "action", action, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update vendor")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "vendor not found")
		return
	}

	broadcast(h.hub, websocket.EntityVendor, action, id)
	writeData(w, http.StatusOK, updated)
}

func (h *VendorHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsActive *bool `json:"isActive"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "isActive is required")
		return
	}
	h.save(w, r, r.PathValue("id"), model.VendorPatch{IsActive: req.IsActive}, "status")
}

// Discard flags the vendor as discarded, which also deactivates it. An empty
// body discards; {"isDiscarded": false} restores the flag only.
func (h *VendorHandler) Discard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsDiscarded *bool `json:"isDiscarded"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeDecodeError(w, err)
			return
		}
	}
	discarded := true
	if req.IsDiscarded != nil {
		discarded = *req.IsDiscarded
	}

	patch := model.VendorPatch{IsDiscarded: &discarded}
	if discarded {
		inactive := false
		patch.IsActive = &inactive
	}
	h.save(w, r, r.PathValue("id"), patch, "discarded")
}

func (h *VendorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	v, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.vendors.Delete(r.Context(), v.ID); err != nil {
		h.logger.Error("delete vendor", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete vendor")
		return
	}

	broadcast(h.hub, websocket.EntityVendor, "deleted", v.ID)
	writeMessage(w, http.StatusOK, "vendor deleted")
}
