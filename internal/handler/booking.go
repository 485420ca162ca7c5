package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/eventory/internal/model"
	"github.com/dukerupert/eventory/internal/payment"
	"github.com/dukerupert/eventory/internal/stats"
	"github.com/dukerupert/eventory/internal/store"
	"github.com/dukerupert/eventory/internal/websocket"
)

type BookingHandler struct {
	bookings BookingStore
	payments PaymentLookup
	hub      Broadcaster
	logger   *slog.Logger
	now      func() time.Time
}

func NewBookingHandler(bs BookingStore, payments PaymentLookup, hub Broadcaster, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{bookings: bs, payments: payments, hub: hub, logger: logger, now: time.Now}
}

type bookingRequest struct {
	UserID          *string              `json:"userId"`
	Items           *[]model.BookingItem `json:"items"`
	TotalAmount     *float64             `json:"totalAmount"`
	Status          *model.BookingStatus `json:"status"`
	PaymentIntentID *string              `json:"paymentIntentId"`
	Address         *model.Address       `json:"address"`
}

func (req *bookingRequest) validate() error {
	req.UserID, req.PaymentIntentID = trimmed(req.UserID), trimmed(req.PaymentIntentID)
	if req.UserID != nil && *req.UserID == "" {
		return badRequest("userId is required")
	}
	if req.Items != nil && len(*req.Items) == 0 {
		return badRequest("at least one item is required")
	}
	if a := req.Address; a != nil {
		a.Street, a.City, a.Country = strings.TrimSpace(a.Street), strings.TrimSpace(a.City), strings.TrimSpace(a.Country)
		if a.Street == "" || a.City == "" || a.Country == "" {
			return badRequest("address street, city and country are required")
		}
	}
	if req.Status != nil && !req.Status.Valid() {
		return badRequest("status must be pending, confirmed, cancelled or completed")
	}
	return nil
}

func (req *bookingRequest) patch() model.BookingPatch {
	p := model.BookingPatch{
		UserID:          req.UserID,
		TotalAmount:     req.TotalAmount,
		Status:          req.Status,
		PaymentIntentID: req.PaymentIntentID,
		Address:         req.Address,
	}
	if req.Items != nil {
		p.Items = *req.Items
	}
	return p
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := store.ParseBookingQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.list(w, r, q)
}

func (h *BookingHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	q, err := store.ParseBookingQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q.UserID = r.PathValue("userId")
	h.list(w, r, q)
}

func (h *BookingHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	q, err := store.ParseBookingQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q.Status = model.BookingStatus(r.PathValue("status"))
	if !q.Status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be pending, confirmed, cancelled or completed")
		return
	}
	h.list(w, r, q)
}

func (h *BookingHandler) list(w http.ResponseWriter, r *http.Request, q store.BookingQuery) {
	bookings, err := h.bookings.List(r.Context(), q)
	if err != nil {
		h.logger.Error("list bookings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list bookings")
		return
	}
	writeData(w, http.StatusOK, bookings)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, ok := h.load(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, b)
}

func (h *BookingHandler) load(w http.ResponseWriter, r *http.Request) (*model.Booking, bool) {
	b, err := h.bookings.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("get booking", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get booking")
		return nil, false
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return nil, false
	}
	return b, true
}

// Create records a booking. totalAmount is taken as sent.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.UserID == nil || req.Items == nil || req.Address == nil {
		writeError(w, http.StatusBadRequest, "userId, items and address are required")
		return
	}
	if err := req.validate(); err != nil {
		writeDecodeError(w, err)
		return
	}

	b := &model.Booking{Status: model.StatusPending}
	req.patch().Apply(b)

	created, err := h.bookings.Create(r.Context(), b)
	if err != nil {
		h.logger.Error("create booking", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create booking")
		return
	}

	broadcast(h.hub, websocket.EntityBooking, "created", created.ID)
	writeData(w, http.StatusCreated, created)
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeDecodeError(w, err)
		return
	}

	id := r.PathValue("id")
	updated, err := h.bookings.Update(r.Context(), id, req.patch())
	if err != nil {
		h.logger.Error("update booking", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update booking")
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}

	broadcast(h.hub, websocket.EntityBooking, "updated", id)
	writeData(w, http.StatusOK, updated)
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	b, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.bookings.Delete(r.Context(), b.ID); err != nil {
		h.logger.Error("delete booking", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete booking")
		return
	}

	broadcast(h.hub, websocket.EntityBooking, "deleted", b.ID)
	writeMessage(w, http.StatusOK, "booking deleted")
}

// Stats summarizes bookings created between dateFrom and dateTo inclusive.
// A missing bound is filled from the default window.
func (h *BookingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	from, to := stats.DefaultRange(h.now())
	v := r.URL.Query()

	fromSet := v.Get("dateFrom") != ""
	if s := v.Get("dateTo"); s != "" {
		t, err := store.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid dateTo, expected YYYY-MM-DD")
			return
		}
		to = t
		if !fromSet {
			from = to.AddDate(0, 0, -(stats.DefaultWindow - 1))
		}
	}
	if fromSet {
		t, err := store.ParseDate(v.Get("dateFrom"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid dateFrom, expected YYYY-MM-DD")
			return
		}
		from = t
	}
	if from.After(to) {
		writeError(w, http.StatusBadRequest, "dateFrom must not be after dateTo")
		return
	}
	if stats.Days(from, to) > stats.MaxWindow {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("date range must not exceed %d days", stats.MaxWindow))
		return
	}

	summary, err := h.bookings.Stats(r.Context(), from, to)
	if err != nil {
		h.logger.Error("booking stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute booking statistics")
		return
	}
	writeData(w, http.StatusOK, summary)
}

// Payment reports the provider-side state of the booking's payment intent.
func (h *BookingHandler) Payment(w http.ResponseWriter, r *http.Request) {
	b, ok := h.load(w, r)
	if !ok {
		return
	}
	if b.PaymentIntentID == "" {
		writeError(w, http.StatusBadRequest, "booking has no payment intent")
		return
	}
	if h.payments == nil {
		writeError(w, http.StatusServiceUnavailable, "payment provider is not configured")
		return
	}

	intent, err := h.payments.PaymentIntent(r.Context(), b.PaymentIntentID)
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "payment provider is not configured")
			return
		}
		h.logger.Error("payment intent lookup", "booking", b.ID, "error", err)
		writeError(w, http.StatusBadGateway, "failed to look up payment")
		return
	}
	writeData(w, http.StatusOK, intent)
}
