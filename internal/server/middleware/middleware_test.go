package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/numberdesk/numberdesk/internal/model"
	"github.com/numberdesk/numberdesk/internal/service"
)

// ---------------------------------------------------------------------------
// RequestID middleware tests
// ---------------------------------------------------------------------------

func TestRequestIDGeneratesUUID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("expected non-empty request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	respID := rr.Header().Get("X-Request-ID")
	// UUID v7 format check: 36 chars with dashes
	if len(respID) != 36 {
		t.Errorf("expected UUID-length request ID, got %q (len=%d)", respID, len(respID))
	}
}

func TestRequestIDPreservesClientID(t *testing.T) {
	clientID := "my-custom-trace-id-123"

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetRequestID(r.Context()); id != clientID {
			t.Errorf("expected context ID %q, got %q", clientID, id)
		}
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", clientID)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != clientID {
		t.Errorf("expected response X-Request-ID %q, got %q", clientID, got)
	}
}

func TestRequestIDReplacesMalformedClientID(t *testing.T) {
	for _, bad := range []string{strings.Repeat("x", maxRequestIDLen+1), "has space", "tab\there"} {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Request-ID", bad)
		rr := httptest.NewRecorder()
		RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rr, req)

		if got := rr.Header().Get("X-Request-ID"); got == bad || len(got) != 36 {
			t.Errorf("client id %q: got %q, want a generated UUID", bad, got)
		}
	}
}

func TestGetRequestIDEmptyContext(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("expected empty string from bare context, got %q", id)
	}
}

// ---------------------------------------------------------------------------
// Logger middleware tests
// ---------------------------------------------------------------------------

func TestLoggerRecordsStatusAndRoute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Delete("/users/delete/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("nope"))
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("DELETE", "/users/delete/7", nil))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
	if entry["status"] != float64(404) {
		t.Errorf("status = %v, want 404", entry["status"])
	}
	if entry["bytes"] != float64(4) {
		t.Errorf("bytes = %v, want 4", entry["bytes"])
	}
	if entry["route"] != "/users/delete/{id}" {
		t.Errorf("route = %v, want /users/delete/{id}", entry["route"])
	}
	if entry["request_id"] == "" {
		t.Error("expected request_id in log line")
	}
}

// ---------------------------------------------------------------------------
// Authenticate middleware tests
// ---------------------------------------------------------------------------

type stubAuth struct {
	principal *service.Principal
	err       error
	got       string
}

func (s *stubAuth) Authenticate(_ context.Context, bearer string) (*service.Principal, error) {
	s.got = bearer
	return s.principal, s.err
}

func serveAuth(t *testing.T, auth Authenticator, header string) (*httptest.ResponseRecorder, *service.Principal) {
	t.Helper()
	var seen *service.Principal
	handler := Authenticate(auth, slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetPrincipal(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/numbers/detail_number", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr, seen
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) model.ErrorDetail {
	t.Helper()
	var body model.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rr.Body.String(), err)
	}
	return body.Error
}

func TestAuthenticateAcceptsValidToken(t *testing.T) {
	auth := &stubAuth{principal: &service.Principal{Kind: service.PrincipalSession, Username: "admin"}}

	rr, seen := serveAuth(t, auth, "Bearer abc123")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if auth.got != "abc123" {
		t.Errorf("token passed = %q, want abc123", auth.got)
	}
	if seen == nil || seen.Username != "admin" {
		t.Errorf("principal in context = %+v, want admin", seen)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"missing header", "", nil, http.StatusUnauthorized, "Authentication required"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", nil, http.StatusUnauthorized, "Authentication required"},
		{"invalid token", "Bearer nope", service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid token"},
		{"expired token", "Bearer a.b.c", service.ErrTokenExpired, http.StatusUnauthorized, "Token expired"},
		{"store failure", "Bearer abc", errors.New("redis: connection refused"), http.StatusInternalServerError, "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, seen := serveAuth(t, &stubAuth{err: tt.err}, tt.header)
			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
			if seen != nil {
				t.Error("inner handler should not run")
			}
			detail := decodeError(t, rr)
			if detail.Code != tt.wantCode {
				t.Errorf("error.code = %d, want %d", detail.Code, tt.wantCode)
			}
			if !strings.Contains(detail.Message, tt.wantMsg) {
				t.Errorf("error.message = %q, want it to contain %q", detail.Message, tt.wantMsg)
			}
			if strings.Contains(detail.Message, "redis") {
				t.Error("internal error text leaked to the client")
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer   abc  ", "abc"},
		{"Token abc", ""},
		{"Bearer", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := BearerToken(req); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// GetPrincipal tests
// ---------------------------------------------------------------------------

func TestGetPrincipalWithValue(t *testing.T) {
	expected := &service.Principal{Kind: service.PrincipalLegacy, Username: "Test1"}
	ctx := context.WithValue(context.Background(), AuthPrincipalKey, expected)

	got := GetPrincipal(ctx)
	if got == nil {
		t.Fatal("expected non-nil principal")
	}
	if got.Username != "Test1" {
		t.Errorf("expected Username Test1, got %q", got.Username)
	}
}

func TestGetPrincipalWithoutValue(t *testing.T) {
	if got := GetPrincipal(context.Background()); got != nil {
		t.Error("expected nil principal from bare context")
	}
}
