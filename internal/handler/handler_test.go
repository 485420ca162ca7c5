package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/eventory/internal/auth"
	"github.com/dukerupert/eventory/internal/database"
	"github.com/dukerupert/eventory/internal/logging"
	"github.com/dukerupert/eventory/internal/model"
	"github.com/dukerupert/eventory/internal/payment"
	"github.com/dukerupert/eventory/internal/store"
	"github.com/dukerupert/eventory/internal/websocket"
)

type mockImages struct {
	mock.Mock
}

func (m *mockImages) Upload(ctx context.Context, folder, contentType string, body io.Reader, size int64) (string, error) {
	data, _ := io.ReadAll(body)
	args := m.Called(folder, contentType, string(data))
	return args.String(0), args.Error(1)
}

func (m *mockImages) Delete(ctx context.Context, imageURL string) error {
	args := m.Called(imageURL)
	return args.Error(0)
}

type mockPayments struct {
	mock.Mock
}

func (m *mockPayments) PaymentIntent(ctx context.Context, id string) (*payment.Intent, error) {
	args := m.Called(id)
	intent, _ := args.Get(0).(*payment.Intent)
	return intent, args.Error(1)
}

type recordingHub struct {
	mu   sync.Mutex
	msgs []websocket.Message
}

func (h *recordingHub) Broadcast(msg websocket.Message) {
	h.mu.Lock()
	h.msgs = append(h.msgs, msg)
	h.mu.Unlock()
}

func (h *recordingHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.msgs))
	for i, m := range h.msgs {
		out[i] = m.Type
	}
	return out
}

type testEnv struct {
	categories *store.CategoryStore
	items      *store.ItemStore
	vendors    *store.VendorStore
	bookings   *store.BookingStore
	admins     *store.AdminStore
	images     *mockImages
	payments   *mockPayments
	hub        *recordingHub
	mux        *http.ServeMux

	identity *auth.AuthContext
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := &testEnv{
		categories: store.NewCategoryStore(db),
		items:      store.NewItemStore(db),
		vendors:    store.NewVendorStore(db),
		bookings:   store.NewBookingStore(db),
		admins:     store.NewAdminStore(db),
		images:     new(mockImages),
		payments:   new(mockPayments),
		hub:        &recordingHub{},
		mux:        http.NewServeMux(),
		identity:   &auth.AuthContext{AdminID: "test-admin", Role: model.RoleSuperAdmin},
	}
	logger := logging.Discard()

	ch := NewCategoryHandler(e.categories, e.images, e.hub, logger)
	e.mux.HandleFunc("GET /api/category", ch.List)
	e.mux.HandleFunc("POST /api/category", ch.Create)
	e.mux.HandleFunc("GET /api/category/{id}", ch.Get)
	e.mux.HandleFunc("PUT /api/category/{id}", ch.Update)
	e.mux.HandleFunc("DELETE /api/category/{id}", ch.Delete)

	ih := NewItemHandler(e.items, e.categories, e.vendors, e.images, e.hub, logger)
	e.mux.HandleFunc("GET /api/items", ih.List)
	e.mux.HandleFunc("POST /api/items", ih.Create)
	e.mux.HandleFunc("GET /api/items/{id}", ih.Get)
	e.mux.HandleFunc("PUT /api/items/{id}", ih.Update)
	e.mux.HandleFunc("DELETE /api/items/{id}", ih.Delete)
	e.mux.HandleFunc("PATCH /api/items/{id}/deactivate", ih.Deactivate)

	vh := NewVendorHandler(e.vendors, e.hub, logger)
	e.mux.HandleFunc("GET /api/vendor", vh.List)
	e.mux.HandleFunc("POST /api/vendor", vh.Create)
	e.mux.HandleFunc("GET /api/vendor/{id}", vh.Get)
	e.mux.HandleFunc("PUT /api/vendor/{id}", vh.Update)
	e.mux.HandleFunc("DELETE /api/vendor/{id}", vh.Delete)
	e.mux.HandleFunc("PATCH /api/vendor/{id}/status", vh.ToggleStatus)
	e.mux.HandleFunc("PATCH /api/vendor/{id}/discard", vh.Discard)

	bh := NewBookingHandler(e.bookings, e.payments, e.hub, logger)
	e.mux.HandleFunc("GET /api/bookings", bh.List)
	e.mux.HandleFunc("POST /api/bookings", bh.Create)
	e.mux.HandleFunc("GET /api/bookings/stats", bh.Stats)
	e.mux.HandleFunc("GET /api/bookings/user/{userId}", bh.ListByUser)
	e.mux.HandleFunc("GET /api/bookings/status/{status}", bh.ListByStatus)
	e.mux.HandleFunc("GET /api/bookings/payment/{id}", bh.Payment)
	e.mux.HandleFunc("GET /api/bookings/{id}", bh.Get)
	e.mux.HandleFunc("PUT /api/bookings/{id}", bh.Update)
	e.mux.HandleFunc("DELETE /api/bookings/{id}", bh.Delete)

	ah := NewAdminHandler(e.admins, e.hub, logger)
	e.mux.HandleFunc("GET /api/admins", ah.List)
	e.mux.HandleFunc("POST /api/admins", ah.Create)
	e.mux.HandleFunc("DELETE /api/admins/{id}", ah.Delete)
	e.mux.HandleFunc("PATCH /api/admins/{id}/role", ah.UpdateRole)

	return e
}

// serve runs req through the routes with the env's identity attached.
func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	if e.identity != nil {
		req = req.WithContext(auth.WithAuth(req.Context(), *e.identity))
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.serve(req)
}

type formFile struct {
	contentType string
	data        string
}

// doMultipart sends fields and an optional image part as multipart/form-data.
func (e *testEnv) doMultipart(t *testing.T, method, path string, fields map[string]string, image *formFile) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="photo"`)
		h.Set("Content-Type", image.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(image.data))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.serve(req)
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), "body: %s", rec.Body.String())
	return resp
}

// decodeData decodes the envelope's data into v and returns the envelope.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) apiResponse {
	t.Helper()
	resp := decodeResponse(t, rec)
	require.True(t, resp.Success, "body: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(resp.Data, v))
	return resp
}
