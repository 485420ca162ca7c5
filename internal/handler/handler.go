// Package handler implements the admin REST API on top of the entity stores.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/eventory/internal/model"
	"github.com/dukerupert/eventory/internal/payment"
	"github.com/dukerupert/eventory/internal/stats"
	"github.com/dukerupert/eventory/internal/store"
	"github.com/dukerupert/eventory/internal/websocket"
)

const (
	maxJSONBody      = 1 << 20
	maxMultipartBody = 10 << 20
	multipartMemory  = 2 << 20
	imageField       = "image"
)

type CategoryStore interface {
	Create(ctx context.Context, c *model.Category) (*model.Category, error)
	GetByID(ctx context.Context, id string) (*model.Category, error)
	List(ctx context.Context, q store.CategoryQuery) ([]model.Category, error)
	ListDescendants(ctx context.Context, id string) ([]model.Category, error)
	Update(ctx context.Context, id string, p model.CategoryPatch) (*model.Category, error)
	SetPlacement(ctx context.Context, id string, pl model.Placement) error
	Delete(ctx context.Context, id string) error
}

type ItemStore interface {
	Create(ctx context.Context, it *model.Item) (*model.Item, error)
	GetByID(ctx context.Context, id string) (*model.Item, error)
	GetView(ctx context.Context, id string) (*model.ItemView, error)
	List(ctx context.Context, q store.ItemQuery) ([]model.ItemView, error)
	Update(ctx context.Context, id string, p model.ItemPatch) (*model.Item, error)
	Delete(ctx context.Context, id string) error
}

type VendorStore interface {
	Create(ctx context.Context, v *model.Vendor) (*model.Vendor, error)
	GetByID(ctx context.Context, id string) (*model.Vendor, error)
	List(ctx context.Context, q store.VendorQuery) ([]model.Vendor, error)
	Update(ctx context.Context, id string, p model.VendorPatch) (*model.Vendor, error)
	Delete(ctx context.Context, id string) error
}

type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	List(ctx context.Context, q store.BookingQuery) ([]model.Booking, error)
	Update(ctx context.Context, id string, p model.BookingPatch) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, from, to time.Time) (*stats.Summary, error)
}

type AdminStore interface {
	Create(ctx context.Context, a *model.Admin) (*model.Admin, error)
	GetByID(ctx context.Context, id string) (*model.Admin, error)
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	List(ctx context.Context) ([]model.Admin, error)
	UpdateRole(ctx context.Context, id string, role model.Role) (*model.Admin, error)
	Delete(ctx context.Context, id string) error
}

// ImageStore is the remote image host.
type ImageStore interface {
	Upload(ctx context.Context, folder, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, imageURL string) error
}

// PaymentLookup resolves payment intents with the payment provider.
type PaymentLookup interface {
	PaymentIntent(ctx context.Context, id string) (*payment.Intent, error)
}

// Broadcaster publishes change notifications. *websocket.Hub satisfies it.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

func broadcast(b Broadcaster, entity, action, id string) {
	if b != nil {
		b.Broadcast(websocket.NewMessage(entity, action, id))
	}
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: true, Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// requestError is a client error whose message is safe to return as is.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

// writeDecodeError reports a body decoding failure as a 400.
func writeDecodeError(w http.ResponseWriter, err error) {
	var re *requestError
	if errors.As(err, &re) {
		writeError(w, http.StatusBadRequest, re.msg)
		return
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(v)
}

// upload is an image file received in a multipart request.
type upload struct {
	file   multipart.File
	header *multipart.FileHeader
}

func (u *upload) Close() error {
	if u == nil {
		return nil
	}
	return u.file.Close()
}

func (u *upload) contentType() string {
	ct := u.header.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return ct
}

func isMultipart(r *http.Request) bool {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mt == "multipart/form-data"
}

// decodeForm decodes a JSON body, or a multipart form whose text fields are
// re-encoded as a JSON object of strings, into v. The returned upload is the
// optional image file part; callers must close it.
func decodeForm(w http.ResponseWriter, r *http.Request, v any) (*upload, error) {
	if !isMultipart(r) {
		return nil, decodeJSON(w, r, v)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(r.MultipartForm.Value))
	for k, vs := range r.MultipartForm.Value {
		if len(vs) > 0 {
			fields[k] = vs[0]
		}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, err
	}

	file, header, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &upload{file: file, header: header}, nil
}

// flexBool accepts a JSON boolean or a string such as "true" from form fields.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return badRequest("expected a boolean")
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		*b = true
	case "false", "0":
		*b = false
	default:
		return badRequest("expected a boolean, got " + s)
	}
	return nil
}

func boolValue(b *flexBool) *bool {
	if b == nil {
		return nil
	}
	v := bool(*b)
	return &v
}

// optionalID tracks whether a nullable reference was supplied and its value.
// null, "", and "null" all clear the reference.
type optionalID struct {
	Set   bool
	Value *string
}

func (o *optionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return badRequest("expected an id string")
	}
	if s != nil {
		v := strings.TrimSpace(*s)
		if v != "" && v != "null" {
			o.Value = &v
		}
	}
	return nil
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
