package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/eventory/internal/auth"
	"github.com/dukerupert/eventory/internal/model"
)

func newIssuer() *auth.TokenIssuer {
	return auth.NewTokenIssuer("test-secret", time.Hour)
}

func TestRequireAuthNoCookie(t *testing.T) {
	handler := RequireAuth(newIssuer())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Errorf("body = %q, want error envelope", rec.Body.String())
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	handler := RequireAuth(newIssuer())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "invalid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidSession(t *testing.T) {
	issuer := newIssuer()
	token, err := issuer.Issue("admin-1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var gotAC auth.AuthContext
	handler := RequireAuth(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.AdminID != "admin-1" {
		t.Errorf("AdminID = %q, want %q", gotAC.AdminID, "admin-1")
	}
	if gotAC.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want %q", gotAC.Role, model.RoleAdmin)
	}
}

func TestRequireSuperAdmin(t *testing.T) {
	handler := RequireSuperAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	cases := []struct {
		role model.Role
		want int
	}{
		{model.RoleSuperAdmin, http.StatusOK},
		{model.RoleAdmin, http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/", nil)
		req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{AdminID: "a", Role: tc.role}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("role %s: status = %d, want %d", tc.role, rec.Code, tc.want)
		}
	}

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("no identity: status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))

	req := httptest.NewRequest("GET", "/api/items/x", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=404", "bytes=7", "path=/api/items/x"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}
